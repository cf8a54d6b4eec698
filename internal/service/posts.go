package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/images"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

const (
	maxPostLength = 5000
	maxTags       = 10
)

// CreatePostRequest carries a new post's fields
type CreatePostRequest struct {
	Body     string   `json:"body" binding:"required"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

// EditPostRequest carries a post edit
type EditPostRequest struct {
	Body string   `json:"body" binding:"required"`
	Tags []string `json:"tags"`
}

// CreatePost publishes a post, compressing any inline image and notifying
// the author's followers
func (s *Service) CreatePost(ctx context.Context, userID string, req CreatePostRequest) (*models.Post, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, apierrors.Forbidden("banned users cannot post")
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apierrors.ValidationError("body", "must not be empty")
	}
	if len(body) > maxPostLength {
		return nil, apierrors.ValidationError("body", "exceeds maximum length")
	}

	tags := normalizeTags(req.Tags)

	imageURL := req.ImageURL
	if imageURL != "" && images.NeedsCompression(imageURL) {
		compressed, err := images.Compress(imageURL, images.DefaultTarget)
		if err != nil {
			s.log.Warn("post image compression failed, keeping original",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			imageURL = compressed
		}
	}

	post := &models.Post{
		ID:         newID(),
		UserID:     userID,
		Body:       body,
		ImageURL:   imageURL,
		Tags:       tags,
		Visibility: models.VisibilityPublic,
		CreatedAt:  now(),
		UpdatedAt:  now(),
	}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, err
	}
	if err := s.store.Users().IncrementPostCount(ctx, userID, 1); err != nil {
		s.log.Warn("failed to bump post count", zap.String("user_id", userID), zap.Error(err))
	}

	followers, err := s.store.Follows().ListFollowers(ctx, userID)
	if err != nil {
		s.log.Warn("failed to list followers for new-post fanout", zap.Error(err))
	} else {
		for _, f := range followers {
			s.notify(ctx, f.FollowerID, models.NotificationNewPost,
				user.Username+" shared a new post", post.ID)
		}
	}

	s.events.PostCreated(post)
	return post, nil
}

// GetFeed assembles the public feed enriched for the viewer; viewerID may
// be empty for anonymous reads
func (s *Service) GetFeed(ctx context.Context, viewerID string, limit int) ([]models.FeedPost, error) {
	posts, err := s.store.Posts().List(ctx, 0)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedPost, 0, len(posts))
	for i := range posts {
		if posts[i].Visibility != models.VisibilityPublic {
			continue
		}
		fp, err := s.assembleFeedPost(ctx, viewerID, &posts[i])
		if err != nil {
			return nil, err
		}
		feed = append(feed, *fp)
		if limit > 0 && len(feed) >= limit {
			break
		}
	}
	return feed, nil
}

// GetPost returns one post enriched for the viewer. Hidden and removed
// posts are visible only to their owner and admins.
func (s *Service) GetPost(ctx context.Context, viewerID, postID string) (*models.FeedPost, error) {
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Visibility != models.VisibilityPublic {
		if viewerID == "" {
			return nil, apierrors.NotFound("post not found")
		}
		if viewerID != post.UserID {
			viewer, err := s.requireUser(ctx, viewerID)
			if err != nil || !viewer.IsAdmin {
				return nil, apierrors.NotFound("post not found")
			}
		}
	}
	return s.assembleFeedPost(ctx, viewerID, post)
}

// ListUserPosts returns a profile's posts; owners and admins also see
// non-public ones
func (s *Service) ListUserPosts(ctx context.Context, viewerID, userID string) ([]models.FeedPost, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.store.Posts().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seeAll := viewerID == userID
	if !seeAll && viewerID != "" {
		if viewer, err := s.store.Users().GetByID(ctx, viewerID); err == nil && viewer.IsAdmin {
			seeAll = true
		}
	}

	feed := make([]models.FeedPost, 0, len(posts))
	for i := range posts {
		if !seeAll && posts[i].Visibility != models.VisibilityPublic {
			continue
		}
		fp, err := s.assembleFeedPost(ctx, viewerID, &posts[i])
		if err != nil {
			return nil, err
		}
		feed = append(feed, *fp)
	}
	return feed, nil
}

// EditPost updates a post's body and tags. The first edit preserves the
// original body.
func (s *Service) EditPost(ctx context.Context, userID, postID string, req EditPostRequest) (*models.Post, error) {
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, apierrors.Forbidden("only the author can edit a post")
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apierrors.ValidationError("body", "must not be empty")
	}
	if len(body) > maxPostLength {
		return nil, apierrors.ValidationError("body", "exceeds maximum length")
	}

	if post.OriginalBody == "" && body != post.Body {
		post.OriginalBody = post.Body
	}
	post.Body = body
	if req.Tags != nil {
		post.Tags = normalizeTags(req.Tags)
	}
	editedAt := now()
	post.EditedAt = &editedAt
	post.UpdatedAt = editedAt

	if err := s.store.Posts().Update(ctx, post); err != nil {
		return nil, err
	}
	s.events.PostUpdated(post)
	return post, nil
}

// DeletePost removes the author's own post along with its comments,
// context, and membership rows
func (s *Service) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return apierrors.Forbidden("only the author can delete a post")
	}

	if err := s.store.Comments().DeleteByPost(ctx, postID); err != nil {
		return err
	}
	if err := s.store.Contexts().DeleteByPost(ctx, postID); err != nil {
		return err
	}
	if err := s.store.Posts().Delete(ctx, postID); err != nil {
		return err
	}
	if err := s.store.Users().IncrementPostCount(ctx, userID, -1); err != nil {
		s.log.Warn("failed to decrement post count", zap.String("user_id", userID), zap.Error(err))
	}
	s.events.PostRemoved(postID)
	return nil
}

// ToggleLike likes or unlikes a post and reports the resulting state.
// Liking someone else's post notifies the owner; unliking never does.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (liked bool, count int, err error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if user.Banned {
		return false, 0, apierrors.Forbidden("banned users cannot like posts")
	}
	post, err := s.requirePost(ctx, postID)
	if err != nil {
		return false, 0, err
	}

	exists, err := s.store.Likes().Exists(ctx, userID, postID)
	if err != nil {
		return false, 0, err
	}

	if exists {
		if err := s.store.Likes().Remove(ctx, userID, postID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return false, 0, err
		}
		liked = false
	} else {
		if err := s.store.Likes().Add(ctx, userID, postID); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return false, 0, err
		}
		liked = true
		if post.UserID != userID {
			s.notify(ctx, post.UserID, models.NotificationLike,
				user.Username+" liked your post", postID)
		}
	}

	count, err = s.store.Likes().Count(ctx, postID)
	if err != nil {
		return liked, 0, err
	}

	// Refresh the cached counter; the membership set stays authoritative
	post.LikeCount = count
	if err := s.store.Posts().Update(ctx, post); err != nil {
		s.log.Warn("failed to refresh cached like count", zap.String("post_id", postID), zap.Error(err))
	}
	return liked, count, nil
}

// ToggleSave saves or unsaves a post for the user; saves are private and
// never notify anyone
func (s *Service) ToggleSave(ctx context.Context, userID, postID string) (saved bool, err error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return false, err
	}
	if _, err := s.requirePost(ctx, postID); err != nil {
		return false, err
	}

	exists, err := s.store.SavedPosts().Exists(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.store.SavedPosts().Remove(ctx, userID, postID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		return false, nil
	}
	if err := s.store.SavedPosts().Add(ctx, userID, postID); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return false, err
	}
	return true, nil
}

// ListSavedPosts returns the viewer's saved posts, newest save first,
// skipping posts that are gone or no longer public
func (s *Service) ListSavedPosts(ctx context.Context, userID string) ([]models.FeedPost, error) {
	saves, err := s.store.SavedPosts().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedPost, 0, len(saves))
	for _, save := range saves {
		post, err := s.store.Posts().GetByID(ctx, save.PostID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if post.Visibility != models.VisibilityPublic && post.UserID != userID {
			continue
		}
		fp, err := s.assembleFeedPost(ctx, userID, post)
		if err != nil {
			return nil, err
		}
		savedAt := save.SavedAt
		fp.SavedAt = &savedAt
		feed = append(feed, *fp)
	}
	return feed, nil
}

// ListPostsByTag returns public posts carrying the tag
func (s *Service) ListPostsByTag(ctx context.Context, viewerID, tag string, limit int) ([]models.FeedPost, error) {
	tag = normalizeTag(tag)
	if tag == "" {
		return nil, apierrors.ValidationError("tag", "must not be empty")
	}
	posts, err := s.store.Posts().ListByTag(ctx, tag, 0)
	if err != nil {
		return nil, err
	}
	feed := make([]models.FeedPost, 0, len(posts))
	for i := range posts {
		if posts[i].Visibility != models.VisibilityPublic {
			continue
		}
		fp, err := s.assembleFeedPost(ctx, viewerID, &posts[i])
		if err != nil {
			return nil, err
		}
		feed = append(feed, *fp)
		if limit > 0 && len(feed) >= limit {
			break
		}
	}
	return feed, nil
}

// TrendingTags counts tag usage across public posts, most used first
func (s *Service) TrendingTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	if limit <= 0 {
		limit = 10
	}
	posts, err := s.store.Posts().List(ctx, 0)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, p := range posts {
		if p.Visibility != models.VisibilityPublic {
			continue
		}
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}
	tags := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, models.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// assembleFeedPost enriches a post with author fields, live counts,
// viewer-relative flags, and the approved context if any
func (s *Service) assembleFeedPost(ctx context.Context, viewerID string, post *models.Post) (*models.FeedPost, error) {
	fp := &models.FeedPost{Post: *post}

	author, err := s.store.Users().GetByID(ctx, post.UserID)
	if err == nil {
		fp.Username = author.Username
		fp.ProfilePicture = author.ProfilePicture
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	fp.LikesCount, err = s.store.Likes().Count(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	fp.CommentsCount, err = s.store.Comments().Count(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	fp.SavesCount, err = s.store.SavedPosts().Count(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if viewerID != "" {
		fp.UserLiked, err = s.store.Likes().Exists(ctx, viewerID, post.ID)
		if err != nil {
			return nil, err
		}
		fp.UserSaved, err = s.store.SavedPosts().Exists(ctx, viewerID, post.ID)
		if err != nil {
			return nil, err
		}
	}

	pc, err := s.store.Contexts().GetByPost(ctx, post.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if pc != nil && pc.IsDisplayApproved() {
		fp.Context = &models.ContextView{
			ID:           pc.ID,
			Text:         pc.Text,
			Approved:     true,
			Upvotes:      pc.Upvotes,
			Downvotes:    pc.Downvotes,
			ApprovalRate: pc.ApprovalRate,
		}
	}
	return fp, nil
}

func normalizeTags(tags []string) models.StringArray {
	seen := make(map[string]bool)
	var out models.StringArray
	for _, tag := range tags {
		tag = normalizeTag(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) >= maxTags {
			break
		}
	}
	return out
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
	return strings.ReplaceAll(tag, ",", "")
}
