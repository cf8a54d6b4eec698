package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/images"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

// UpdateProfileRequest carries the mutable profile fields; nil pointers
// leave the current value untouched
type UpdateProfileRequest struct {
	Username       *string `json:"username"`
	AboutMe        *string `json:"about_me"`
	ProfilePicture *string `json:"profile_picture"`
}

// GetUser returns a user's public record
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.requireUser(ctx, userID)
}

// GetUserByUsername resolves a profile by name, case-insensitively
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies profile edits with the username cooldown, alias
// history, and picture compression rules
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		newName := strings.TrimSpace(*req.Username)
		if !strings.EqualFold(newName, user.Username) {
			if err := validateUsername(newName); err != nil {
				return nil, err
			}
			if user.LastUsernameChange != nil {
				elapsed := now().Sub(*user.LastUsernameChange)
				if elapsed < models.UsernameChangeCooldown {
					remaining := models.UsernameChangeCooldown - elapsed
					return nil, apierrors.Conflict("username can be changed again in "+formatDays(remaining)).
						WithDetails("retry after " + strconv.Itoa(int(remaining.Seconds())) + "s")
				}
			}

			// Alias history keeps the most recent entries first, bounded
			history := append([]models.UsernameChange{{
				Username:  user.Username,
				ChangedAt: now(),
			}}, user.PreviousUsernames...)
			if len(history) > models.MaxPreviousUsernames {
				history = history[:models.MaxPreviousUsernames]
			}
			user.PreviousUsernames = history
			changeTime := now()
			user.LastUsernameChange = &changeTime
			user.Username = newName
		}
	}

	if req.AboutMe != nil {
		about := *req.AboutMe
		if len(about) > models.MaxAboutMeLength {
			about = about[:models.MaxAboutMeLength]
		}
		user.AboutMe = about
	}

	if req.ProfilePicture != nil {
		picture := *req.ProfilePicture
		if picture != "" && images.NeedsCompression(picture) {
			compressed, err := images.Compress(picture, images.ProfileTarget)
			if err != nil {
				s.log.Warn("profile picture compression failed, keeping original",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			} else {
				picture = compressed
			}
		}
		user.ProfilePicture = picture
	}

	user.UpdatedAt = now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apierrors.Conflict("username already taken")
		}
		return nil, err
	}
	return user, nil
}

// ClearAliasHistory wipes the list of previous usernames. The cooldown
// marker is untouched, so this is not a way around the rename limit.
func (s *Service) ClearAliasHistory(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PreviousUsernames = nil
	user.UpdatedAt = now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserStats aggregates the public counters shown on a profile
func (s *Service) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.store.Posts().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := 0
	for _, p := range posts {
		if p.Visibility == models.VisibilityPublic {
			visible++
		}
	}
	likes, err := s.store.Likes().CountReceivedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.store.Follows().CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserStats{
		PostCount:     visible,
		LikesReceived: likes,
		Followers:     followers,
	}, nil
}

// SearchUsers finds users whose username contains the term
func (s *Service) SearchUsers(ctx context.Context, viewerID, term string) ([]models.UserSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apierrors.ValidationError("q", "search term must not be empty")
	}
	users, err := s.store.Users().Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, viewerID, users)
}

// SuggestedUsers lists accounts the viewer does not follow yet, most
// followed first
func (s *Service) SuggestedUsers(ctx context.Context, viewerID string, limit int) ([]models.UserSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	users, err := s.store.Users().List(ctx, 0)
	if err != nil {
		return nil, err
	}

	var candidates []models.User
	for _, u := range users {
		if u.ID == viewerID || u.Banned {
			continue
		}
		following, err := s.store.Follows().Exists(ctx, viewerID, u.ID)
		if err != nil {
			return nil, err
		}
		if !following {
			candidates = append(candidates, u)
		}
	}

	sortByFollowers(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return s.summarize(ctx, viewerID, candidates)
}

func (s *Service) summarize(ctx context.Context, viewerID string, users []models.User) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summary := models.UserSummary{
			ID:             u.ID,
			Username:       u.Username,
			ProfilePicture: u.ProfilePicture,
			Followers:      u.FollowerCount,
			Posts:          u.PostCount,
		}
		if viewerID != "" && viewerID != u.ID {
			following, err := s.store.Follows().Exists(ctx, viewerID, u.ID)
			if err != nil {
				return nil, err
			}
			summary.IsFollowing = following
		}
		out = append(out, summary)
	}
	return out, nil
}

func sortByFollowers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].FollowerCount > users[j].FollowerCount
	})
}

func formatDays(d time.Duration) string {
	days := int(d.Hours()/24) + 1
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}
