package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/auth"
	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/service"
	"github.com/arthub/backend/internal/store/local"
)

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	st  *local.Store
	svc *service.Service
}

func (s *ServiceSuite) SetupTest() {
	st, err := local.OpenInMemory()
	s.Require().NoError(err)
	s.st = st
	s.ctx = context.Background()
	s.svc = service.New(st, auth.NewService([]byte("test-secret")), zap.NewNop())
}

func (s *ServiceSuite) TearDownTest() {
	s.st.Close()
}

func (s *ServiceSuite) register(username string) *models.User {
	res, err := s.svc.Register(s.ctx, service.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	s.Require().NoError(err)
	return &res.User
}

func (s *ServiceSuite) registerAdmin(username string) *models.User {
	s.register(username)
	promoted, err := s.svc.PromoteAdmin(s.ctx, username)
	s.Require().NoError(err)
	return promoted
}

func (s *ServiceSuite) createPost(userID, body string) *models.Post {
	post, err := s.svc.CreatePost(s.ctx, userID, service.CreatePostRequest{Body: body})
	s.Require().NoError(err)
	return post
}

func (s *ServiceSuite) apiStatus(err error) int {
	apiErr, ok := apierrors.AsAPIError(err)
	s.Require().True(ok, "expected APIError, got %v", err)
	return apiErr.Status
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// ---- auth ----

func (s *ServiceSuite) TestRegisterAndLogin() {
	res, err := s.svc.Register(s.ctx, service.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	s.Require().NoError(err)
	s.NotEmpty(res.Token)
	s.Equal("alice", res.User.Username)

	// Login by username and by email
	for _, id := range []string{"alice", "alice@example.com"} {
		login, err := s.svc.Login(s.ctx, service.LoginRequest{Identifier: id, Password: "password123"})
		s.Require().NoError(err, id)
		s.Equal(res.User.ID, login.User.ID)
	}

	_, err = s.svc.Login(s.ctx, service.LoginRequest{Identifier: "alice", Password: "wrong"})
	s.Equal(401, s.apiStatus(err))
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	s.register("alice")
	_, err := s.svc.Register(s.ctx, service.RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	// A taken username or email is a bad request, not a conflict
	s.Equal(400, s.apiStatus(err))
}

func (s *ServiceSuite) TestRegisterShortPassword() {
	// Passwords only have to be present, matching the REST contract
	res, err := s.svc.Register(s.ctx, service.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw123",
	})
	s.Require().NoError(err)

	login, err := s.svc.Login(s.ctx, service.LoginRequest{Identifier: "alice", Password: "pw123"})
	s.Require().NoError(err)
	s.Equal(res.User.ID, login.User.ID)
}

func (s *ServiceSuite) TestPasswordsAreHashed() {
	user := s.register("alice")
	stored, err := s.st.Users().GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.NotEqual("password123", stored.PasswordHash)
	s.NotEmpty(stored.PasswordHash)
}

func (s *ServiceSuite) TestBannedUserCannotLogin() {
	admin := s.registerAdmin("admin")
	user := s.register("bob")
	s.Require().NoError(s.svc.BanUser(s.ctx, admin.ID, user.ID, "spam"))

	_, err := s.svc.Login(s.ctx, service.LoginRequest{Identifier: "bob", Password: "password123"})
	s.Equal(403, s.apiStatus(err))
}

// ---- profile ----

func (s *ServiceSuite) TestUsernameChangeCooldown() {
	user := s.register("alice")

	name2 := "alice2"
	updated, err := s.svc.UpdateProfile(s.ctx, user.ID, service.UpdateProfileRequest{Username: &name2})
	s.Require().NoError(err)
	s.Equal("alice2", updated.Username)
	s.Require().Len(updated.PreviousUsernames, 1)
	s.Equal("alice", updated.PreviousUsernames[0].Username)

	// A second change inside the cooldown window is rejected
	name3 := "alice3"
	_, err = s.svc.UpdateProfile(s.ctx, user.ID, service.UpdateProfileRequest{Username: &name3})
	s.Equal(409, s.apiStatus(err))
}

func (s *ServiceSuite) TestAliasHistoryBounded() {
	user := s.register("alice")

	// Backdate the cooldown marker between changes so each one is allowed
	for i := 0; i < models.MaxPreviousUsernames+3; i++ {
		stored, err := s.st.Users().GetByID(s.ctx, user.ID)
		s.Require().NoError(err)
		past := time.Now().Add(-8 * 24 * time.Hour)
		stored.LastUsernameChange = &past
		s.Require().NoError(s.st.Users().Update(s.ctx, stored))

		name := fmt.Sprintf("alias%d", i)
		_, err = s.svc.UpdateProfile(s.ctx, user.ID, service.UpdateProfileRequest{Username: &name})
		s.Require().NoError(err)
	}

	final, err := s.st.Users().GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(final.PreviousUsernames, models.MaxPreviousUsernames)
	// Newest entry first
	s.Equal(fmt.Sprintf("alias%d", models.MaxPreviousUsernames+1), final.PreviousUsernames[0].Username)
}

func (s *ServiceSuite) TestClearAliasHistory() {
	user := s.register("alice")

	name2 := "alice2"
	_, err := s.svc.UpdateProfile(s.ctx, user.ID, service.UpdateProfileRequest{Username: &name2})
	s.Require().NoError(err)

	cleared, err := s.svc.ClearAliasHistory(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(cleared.PreviousUsernames)

	// Clearing history does not reset the rename cooldown
	name3 := "alice3"
	_, err = s.svc.UpdateProfile(s.ctx, user.ID, service.UpdateProfileRequest{Username: &name3})
	s.Equal(409, s.apiStatus(err))
}

func (s *ServiceSuite) TestAboutMeTruncated() {
	user := s.register("alice")
	long := ""
	for len(long) < models.MaxAboutMeLength+100 {
		long += "x"
	}
	updated, err := s.svc.UpdateProfile(s.ctx, user.ID, service.UpdateProfileRequest{AboutMe: &long})
	s.Require().NoError(err)
	s.Len(updated.AboutMe, models.MaxAboutMeLength)
}

// ---- posts & feed ----

func (s *ServiceSuite) TestCreatePostAndFeed() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "hello world")

	feed, err := s.svc.GetFeed(s.ctx, bob.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(feed, 1)
	s.Equal(post.ID, feed[0].ID)
	s.Equal("alice", feed[0].Username)
	s.False(feed[0].UserLiked)
	s.Zero(feed[0].LikesCount)
}

func (s *ServiceSuite) TestFeedOrderNewestFirst() {
	alice := s.register("alice")
	for i := 0; i < 3; i++ {
		s.createPost(alice.ID, fmt.Sprintf("post %d", i))
		time.Sleep(5 * time.Millisecond)
	}
	feed, err := s.svc.GetFeed(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Require().Len(feed, 3)
	s.Equal("post 2", feed[0].Body)
	s.Equal("post 0", feed[2].Body)
}

func (s *ServiceSuite) TestEditPostKeepsOriginalBody() {
	alice := s.register("alice")
	post := s.createPost(alice.ID, "first version")

	edited, err := s.svc.EditPost(s.ctx, alice.ID, post.ID, service.EditPostRequest{Body: "second version"})
	s.Require().NoError(err)
	s.Equal("second version", edited.Body)
	s.Equal("first version", edited.OriginalBody)
	s.NotNil(edited.EditedAt)

	// A later edit does not overwrite the preserved original
	again, err := s.svc.EditPost(s.ctx, alice.ID, post.ID, service.EditPostRequest{Body: "third version"})
	s.Require().NoError(err)
	s.Equal("first version", again.OriginalBody)
}

func (s *ServiceSuite) TestEditPostOnlyAuthor() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "mine")

	_, err := s.svc.EditPost(s.ctx, bob.ID, post.ID, service.EditPostRequest{Body: "hijacked"})
	s.Equal(403, s.apiStatus(err))
}

func (s *ServiceSuite) TestDeletePostCascades() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "doomed")

	_, err := s.svc.AddComment(s.ctx, bob.ID, post.ID, "nice")
	s.Require().NoError(err)
	_, err = s.svc.AddContext(s.ctx, bob.ID, post.ID, "some context")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeletePost(s.ctx, alice.ID, post.ID))

	_, err = s.svc.GetPost(s.ctx, alice.ID, post.ID)
	s.Equal(404, s.apiStatus(err))
	comments, err := s.st.Comments().ListByPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Empty(comments)
}

func (s *ServiceSuite) TestNewPostNotifiesFollowers() {
	alice := s.register("alice")
	bob := s.register("bob")
	s.Require().NoError(s.svc.Follow(s.ctx, bob.ID, alice.ID))

	s.createPost(alice.ID, "fresh")

	notifs, err := s.svc.ListNotifications(s.ctx, bob.ID)
	s.Require().NoError(err)
	var kinds []models.NotificationType
	for _, n := range notifs {
		kinds = append(kinds, n.Type)
	}
	s.Contains(kinds, models.NotificationNewPost)
}

// ---- likes & saves ----

func (s *ServiceSuite) TestLikeToggleAndNotification() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "likeable")

	liked, count, err := s.svc.ToggleLike(s.ctx, bob.ID, post.ID)
	s.Require().NoError(err)
	s.True(liked)
	s.Equal(1, count)

	notifs, err := s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(notifs, 1)
	s.Equal(models.NotificationLike, notifs[0].Type)

	// Unlike flips the state and does not notify again
	liked, count, err = s.svc.ToggleLike(s.ctx, bob.ID, post.ID)
	s.Require().NoError(err)
	s.False(liked)
	s.Zero(count)

	notifs, err = s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Len(notifs, 1)
}

func (s *ServiceSuite) TestSelfLikeDoesNotNotify() {
	alice := s.register("alice")
	post := s.createPost(alice.ID, "self five")

	_, _, err := s.svc.ToggleLike(s.ctx, alice.ID, post.ID)
	s.Require().NoError(err)

	notifs, err := s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Empty(notifs)
}

func (s *ServiceSuite) TestSaveToggleAndListing() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "keeper")

	saved, err := s.svc.ToggleSave(s.ctx, bob.ID, post.ID)
	s.Require().NoError(err)
	s.True(saved)

	listed, err := s.svc.ListSavedPosts(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(post.ID, listed[0].ID)
	s.NotNil(listed[0].SavedAt)
	s.True(listed[0].UserSaved)

	saved, err = s.svc.ToggleSave(s.ctx, bob.ID, post.ID)
	s.Require().NoError(err)
	s.False(saved)
}

// ---- comments ----

func (s *ServiceSuite) TestCommentsCounterAndNotification() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "discuss")

	comment, err := s.svc.AddComment(s.ctx, bob.ID, post.ID, "first!")
	s.Require().NoError(err)

	refreshed, err := s.st.Posts().GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(1, refreshed.CommentCount)

	notifs, err := s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(notifs, 1)
	s.Equal(models.NotificationComment, notifs[0].Type)

	s.Require().NoError(s.svc.DeleteComment(s.ctx, bob.ID, comment.ID))
	refreshed, err = s.st.Posts().GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Zero(refreshed.CommentCount)

	// Deleting again must not drive the counter negative
	err = s.svc.DeleteComment(s.ctx, bob.ID, comment.ID)
	s.Equal(404, s.apiStatus(err))
	refreshed, err = s.st.Posts().GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Zero(refreshed.CommentCount)
}

func (s *ServiceSuite) TestCommentDeletePermissions() {
	alice := s.register("alice")
	bob := s.register("bob")
	carol := s.register("carol")
	post := s.createPost(alice.ID, "moderated")

	comment, err := s.svc.AddComment(s.ctx, bob.ID, post.ID, "hmm")
	s.Require().NoError(err)

	// A bystander cannot delete
	err = s.svc.DeleteComment(s.ctx, carol.ID, comment.ID)
	s.Equal(403, s.apiStatus(err))

	// The post owner can
	s.NoError(s.svc.DeleteComment(s.ctx, alice.ID, comment.ID))
}

// ---- contexts ----

func (s *ServiceSuite) TestContextOnePerPostAndNotAuthor() {
	alice := s.register("alice")
	bob := s.register("bob")
	carol := s.register("carol")
	post := s.createPost(alice.ID, "needs context")

	_, err := s.svc.AddContext(s.ctx, alice.ID, post.ID, "my own take")
	s.Equal(403, s.apiStatus(err))

	_, err = s.svc.AddContext(s.ctx, bob.ID, post.ID, "actually...")
	s.Require().NoError(err)

	_, err = s.svc.AddContext(s.ctx, carol.ID, post.ID, "another take")
	s.Equal(409, s.apiStatus(err))
}

func (s *ServiceSuite) TestContextVoteReplacement() {
	alice := s.register("alice")
	bob := s.register("bob")
	carol := s.register("carol")
	post := s.createPost(alice.ID, "contested")

	_, err := s.svc.AddContext(s.ctx, bob.ID, post.ID, "context text")
	s.Require().NoError(err)

	pc, err := s.svc.VoteContext(s.ctx, carol.ID, post.ID, models.VoteUp)
	s.Require().NoError(err)
	s.Equal(1, pc.Upvotes)
	s.Equal(0, pc.Downvotes)
	s.InDelta(100.0, pc.ApprovalRate, 0.001)
	s.True(pc.Approved)

	// Changing the vote replaces it instead of double counting
	pc, err = s.svc.VoteContext(s.ctx, carol.ID, post.ID, models.VoteDown)
	s.Require().NoError(err)
	s.Equal(0, pc.Upvotes)
	s.Equal(1, pc.Downvotes)
	s.False(pc.Approved)

	// Re-casting the same vote is idempotent
	pc, err = s.svc.VoteContext(s.ctx, carol.ID, post.ID, models.VoteDown)
	s.Require().NoError(err)
	s.Equal(1, pc.Downvotes)
}

func (s *ServiceSuite) TestContextApprovalThreshold() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "threshold test")
	_, err := s.svc.AddContext(s.ctx, bob.ID, post.ID, "context")
	s.Require().NoError(err)

	// 9 up, 1 down = 90%, approved
	for i := 0; i < 9; i++ {
		voter := s.register(fmt.Sprintf("up%d", i))
		_, err := s.svc.VoteContext(s.ctx, voter.ID, post.ID, models.VoteUp)
		s.Require().NoError(err)
	}
	down := s.register("downer")
	pc, err := s.svc.VoteContext(s.ctx, down.ID, post.ID, models.VoteDown)
	s.Require().NoError(err)
	s.InDelta(90.0, pc.ApprovalRate, 0.001)
	s.True(pc.Approved)

	// One more downvote drops below the threshold
	down2 := s.register("downer2")
	pc, err = s.svc.VoteContext(s.ctx, down2.ID, post.ID, models.VoteDown)
	s.Require().NoError(err)
	s.False(pc.Approved)
}

func (s *ServiceSuite) TestAdminApprovalOverridesDisplay() {
	alice := s.register("alice")
	bob := s.register("bob")
	admin := s.registerAdmin("admin")
	post := s.createPost(alice.ID, "override test")
	pc, err := s.svc.AddContext(s.ctx, bob.ID, post.ID, "context")
	s.Require().NoError(err)

	// No votes: not approved, feed shows no context
	fp, err := s.svc.GetPost(s.ctx, "", post.ID)
	s.Require().NoError(err)
	s.Nil(fp.Context)

	_, err = s.svc.ReviewContext(s.ctx, admin.ID, pc.ID, true)
	s.Require().NoError(err)

	fp, err = s.svc.GetPost(s.ctx, "", post.ID)
	s.Require().NoError(err)
	s.Require().NotNil(fp.Context)
	s.Equal("context", fp.Context.Text)
}

// ---- follows ----

func (s *ServiceSuite) TestFollowCountersAndNotification() {
	alice := s.register("alice")
	bob := s.register("bob")

	s.Require().NoError(s.svc.Follow(s.ctx, bob.ID, alice.ID))

	aliceStored, err := s.st.Users().GetByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(1, aliceStored.FollowerCount)
	bobStored, err := s.st.Users().GetByID(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Equal(1, bobStored.FollowingCount)

	notifs, err := s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(notifs, 1)
	s.Equal(models.NotificationFollow, notifs[0].Type)

	// Duplicate follow rejected
	err = s.svc.Follow(s.ctx, bob.ID, alice.ID)
	s.Equal(409, s.apiStatus(err))

	s.Require().NoError(s.svc.Unfollow(s.ctx, bob.ID, alice.ID))
	aliceStored, err = s.st.Users().GetByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Zero(aliceStored.FollowerCount)
}

func (s *ServiceSuite) TestSelfFollowRejected() {
	alice := s.register("alice")
	err := s.svc.Follow(s.ctx, alice.ID, alice.ID)
	s.Equal(400, s.apiStatus(err))
}

// ---- notifications ----

func (s *ServiceSuite) TestNotificationFetchCap() {
	alice := s.register("alice")
	for i := 0; i < models.MaxNotificationFetch+10; i++ {
		n := &models.Notification{
			ID:        fmt.Sprintf("n-%03d", i),
			UserID:    alice.ID,
			Type:      models.NotificationLike,
			Message:   fmt.Sprintf("notification %d", i),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		s.Require().NoError(s.st.Notifications().Create(s.ctx, n))
	}

	notifs, err := s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Len(notifs, models.MaxNotificationFetch)
	// Newest first
	s.Equal(fmt.Sprintf("notification %d", models.MaxNotificationFetch+9), notifs[0].Message)
}

func (s *ServiceSuite) TestMarkNotificationsRead() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "p")
	_, _, err := s.svc.ToggleLike(s.ctx, bob.ID, post.ID)
	s.Require().NoError(err)
	_, err = s.svc.AddComment(s.ctx, bob.ID, post.ID, "c")
	s.Require().NoError(err)

	unread, err := s.svc.UnreadNotificationCount(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(2, unread)

	notifs, err := s.svc.ListNotifications(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.MarkNotificationRead(s.ctx, alice.ID, notifs[0].ID))

	unread, err = s.svc.UnreadNotificationCount(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(1, unread)

	s.Require().NoError(s.svc.MarkAllNotificationsRead(s.ctx, alice.ID))
	unread, err = s.svc.UnreadNotificationCount(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Zero(unread)
}

// ---- moderation ----

func (s *ServiceSuite) TestBanCascadesToPosts() {
	admin := s.registerAdmin("admin")
	bob := s.register("bob")
	post := s.createPost(bob.ID, "soon hidden")

	s.Require().NoError(s.svc.BanUser(s.ctx, admin.ID, bob.ID, "spam"))

	stored, err := s.st.Posts().GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(models.VisibilityHidden, stored.Visibility)
	s.Equal("User banned", stored.HiddenReason)

	// Hidden posts drop out of the public feed
	feed, err := s.svc.GetFeed(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Empty(feed)

	// Unban restores visibility
	s.Require().NoError(s.svc.UnbanUser(s.ctx, admin.ID, bob.ID))
	feed, err = s.svc.GetFeed(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Len(feed, 1)
}

func (s *ServiceSuite) TestBannedUserCannotAct() {
	admin := s.registerAdmin("admin")
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "target")

	s.Require().NoError(s.svc.BanUser(s.ctx, admin.ID, bob.ID, "spam"))

	_, err := s.svc.CreatePost(s.ctx, bob.ID, service.CreatePostRequest{Body: "nope"})
	s.Equal(403, s.apiStatus(err))
	_, _, err = s.svc.ToggleLike(s.ctx, bob.ID, post.ID)
	s.Equal(403, s.apiStatus(err))
	_, err = s.svc.AddComment(s.ctx, bob.ID, post.ID, "nope")
	s.Equal(403, s.apiStatus(err))
}

func (s *ServiceSuite) TestNonAdminCannotModerate() {
	alice := s.register("alice")
	bob := s.register("bob")
	err := s.svc.BanUser(s.ctx, alice.ID, bob.ID, "no powers")
	s.Equal(403, s.apiStatus(err))
}

func (s *ServiceSuite) TestAdminRemoveAndRestorePost() {
	admin := s.registerAdmin("admin")
	alice := s.register("alice")
	post := s.createPost(alice.ID, "contested")

	s.Require().NoError(s.svc.AdminRemovePost(s.ctx, admin.ID, post.ID, "guideline violation"))

	stored, err := s.st.Posts().GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(models.VisibilityRemoved, stored.Visibility)
	s.NotNil(stored.RemovedAt)
	s.Require().NotNil(stored.RemovedBy)
	s.Equal(admin.ID, *stored.RemovedBy)

	// Owner still sees it; strangers get 404
	_, err = s.svc.GetPost(s.ctx, alice.ID, post.ID)
	s.NoError(err)
	_, err = s.svc.GetPost(s.ctx, "", post.ID)
	s.Equal(404, s.apiStatus(err))

	s.Require().NoError(s.svc.AdminRestorePost(s.ctx, admin.ID, post.ID))
	stored, err = s.st.Posts().GetByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(models.VisibilityPublic, stored.Visibility)
	s.Nil(stored.RemovedAt)
}

func (s *ServiceSuite) TestReportsLifecycle() {
	admin := s.registerAdmin("admin")
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "reported")

	report, err := s.svc.ReportContent(s.ctx, bob.ID, models.ReportTargetPost, post.ID, "spam", "looks automated")
	s.Require().NoError(err)

	pending, err := s.svc.ListPendingReports(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)

	s.Require().NoError(s.svc.DismissReport(s.ctx, admin.ID, report.ID))
	pending, err = s.svc.ListPendingReports(s.ctx, admin.ID)
	s.Require().NoError(err)
	s.Empty(pending)
}

// ---- stats & discovery ----

func (s *ServiceSuite) TestUserStats() {
	alice := s.register("alice")
	bob := s.register("bob")
	post := s.createPost(alice.ID, "stats")
	_, _, err := s.svc.ToggleLike(s.ctx, bob.ID, post.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Follow(s.ctx, bob.ID, alice.ID))

	stats, err := s.svc.GetUserStats(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(1, stats.PostCount)
	s.Equal(1, stats.LikesReceived)
	s.Equal(1, stats.Followers)
}

func (s *ServiceSuite) TestTrendingTags() {
	alice := s.register("alice")
	for i := 0; i < 3; i++ {
		_, err := s.svc.CreatePost(s.ctx, alice.ID, service.CreatePostRequest{
			Body: fmt.Sprintf("post %d", i),
			Tags: []string{"Art", "watercolor"},
		})
		s.Require().NoError(err)
	}
	_, err := s.svc.CreatePost(s.ctx, alice.ID, service.CreatePostRequest{
		Body: "one more",
		Tags: []string{"art"},
	})
	s.Require().NoError(err)

	tags, err := s.svc.TrendingTags(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(tags)
	s.Equal("art", tags[0].Tag)
	s.Equal(4, tags[0].Count)
}

func (s *ServiceSuite) TestSuggestedUsersExcludesFollowed() {
	alice := s.register("alice")
	bob := s.register("bob")
	carol := s.register("carol")
	s.Require().NoError(s.svc.Follow(s.ctx, alice.ID, bob.ID))

	suggested, err := s.svc.SuggestedUsers(s.ctx, alice.ID, 10)
	s.Require().NoError(err)
	names := make([]string, 0, len(suggested))
	for _, u := range suggested {
		names = append(names, u.Username)
	}
	s.Contains(names, carol.Username)
	s.NotContains(names, bob.Username)
	s.NotContains(names, alice.Username)
}
