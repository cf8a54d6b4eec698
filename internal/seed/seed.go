// Package seed fills a store with plausible development data. It goes
// through the service layer so counters, notifications and context
// approval all land the same way real traffic would.
package seed

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/service"
)

// DefaultPassword is shared by every seeded account so developers can
// log in as any of them.
const DefaultPassword = "password123"

var tagPalette = []string{
	"ink", "watercolor", "oils", "digital", "sketch", "portrait",
	"landscape", "abstract", "pixelart", "sculpture", "charcoal", "wip",
}

// Seeder creates fake users and activity
type Seeder struct {
	svc   *service.Service
	log   *zap.Logger
	faker *gofakeit.Faker
}

// NewSeeder builds a seeder; pass a nonzero seed for reproducible data
func NewSeeder(svc *service.Service, log *zap.Logger, seed uint64) *Seeder {
	return &Seeder{
		svc:   svc,
		log:   log,
		faker: gofakeit.New(seed),
	}
}

// Run registers userCount accounts, publishes posts for each, then layers
// follows, likes, comments and context annotations on top.
func (s *Seeder) Run(ctx context.Context, userCount, postsPerUser int) error {
	users, err := s.createUsers(ctx, userCount)
	if err != nil {
		return err
	}

	posts, err := s.createPosts(ctx, users, postsPerUser)
	if err != nil {
		return err
	}

	if err := s.createFollows(ctx, users); err != nil {
		return err
	}
	if err := s.createEngagement(ctx, users, posts); err != nil {
		return err
	}
	if err := s.createContexts(ctx, users, posts); err != nil {
		return err
	}

	s.log.Info("seed complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
	)
	return nil
}

func (s *Seeder) createUsers(ctx context.Context, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := s.username(i)
		res, err := s.svc.Register(ctx, service.RegisterRequest{
			Username: username,
			Email:    fmt.Sprintf("%s@%s", username, s.faker.DomainName()),
			Password: DefaultPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", username, err)
		}
		about := s.faker.Sentence(8)
		if _, err := s.svc.UpdateProfile(ctx, res.User.ID, service.UpdateProfileRequest{
			AboutMe: &about,
		}); err != nil {
			return nil, fmt.Errorf("seed profile %s: %w", username, err)
		}
		users = append(users, res.User)
	}
	s.log.Info("seeded users", zap.Int("count", len(users)))
	return users, nil
}

// username derives a handle that passes validation regardless of what the
// faker produces
func (s *Seeder) username(i int) string {
	base := strings.ToLower(s.faker.Username())
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return fmt.Sprintf("%.20s_%d", b.String(), i)
}

func (s *Seeder) createPosts(ctx context.Context, users []models.User, perUser int) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(users)*perUser)
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			req := service.CreatePostRequest{
				Body: s.faker.Sentence(s.faker.Number(5, 20)),
				Tags: s.pickTags(),
			}
			if s.faker.Bool() {
				jpeg := s.faker.ImageJpeg(64, 48)
				req.ImageURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
			}
			post, err := s.svc.CreatePost(ctx, u.ID, req)
			if err != nil {
				return nil, fmt.Errorf("seed post for %s: %w", u.Username, err)
			}
			posts = append(posts, *post)
		}
	}
	s.log.Info("seeded posts", zap.Int("count", len(posts)))
	return posts, nil
}

func (s *Seeder) pickTags() []string {
	n := s.faker.Number(0, 3)
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, tagPalette[s.faker.Number(0, len(tagPalette)-1)])
	}
	return tags
}

// createFollows links each user to roughly a third of the others
func (s *Seeder) createFollows(ctx context.Context, users []models.User) error {
	for _, follower := range users {
		for _, followee := range users {
			if follower.ID == followee.ID || s.faker.Number(0, 2) != 0 {
				continue
			}
			if err := s.svc.Follow(ctx, follower.ID, followee.ID); err != nil {
				return fmt.Errorf("seed follow: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) createEngagement(ctx context.Context, users []models.User, posts []models.Post) error {
	for _, u := range users {
		for _, p := range posts {
			if p.UserID == u.ID {
				continue
			}
			if s.faker.Number(0, 2) == 0 {
				if _, _, err := s.svc.ToggleLike(ctx, u.ID, p.ID); err != nil {
					return fmt.Errorf("seed like: %w", err)
				}
			}
			if s.faker.Number(0, 4) == 0 {
				text := s.faker.Sentence(s.faker.Number(3, 12))
				if _, err := s.svc.AddComment(ctx, u.ID, p.ID, text); err != nil {
					return fmt.Errorf("seed comment: %w", err)
				}
			}
		}
	}
	return nil
}

// createContexts annotates about half the posts and casts a spread of
// votes so some annotations clear the approval threshold and some don't
func (s *Seeder) createContexts(ctx context.Context, users []models.User, posts []models.Post) error {
	for _, p := range posts {
		if s.faker.Bool() {
			continue
		}
		author := s.pickOtherUser(users, p.UserID)
		if author == nil {
			continue
		}
		if _, err := s.svc.AddContext(ctx, author.ID, p.ID, s.faker.Sentence(s.faker.Number(6, 18))); err != nil {
			return fmt.Errorf("seed context: %w", err)
		}
		for _, voter := range users {
			if voter.ID == author.ID || voter.ID == p.UserID || s.faker.Number(0, 2) != 0 {
				continue
			}
			vote := models.VoteUp
			if s.faker.Number(0, 9) == 0 {
				vote = models.VoteDown
			}
			if _, err := s.svc.VoteContext(ctx, voter.ID, p.ID, vote); err != nil {
				return fmt.Errorf("seed vote: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) pickOtherUser(users []models.User, excludeID string) *models.User {
	for attempts := 0; attempts < 10; attempts++ {
		u := users[s.faker.Number(0, len(users)-1)]
		if u.ID != excludeID {
			return &u
		}
	}
	return nil
}
