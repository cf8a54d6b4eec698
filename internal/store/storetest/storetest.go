// Package storetest runs one behavioral test suite against every
// persistence backend. Each backend package wires its own factory into
// Run; the suite only talks to the repository interfaces.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

// Factory returns a fresh, empty store for one test. Cleanup is the
// caller's job via t.Cleanup.
type Factory func(t *testing.T) store.Store

var seq int

func nextID() string {
	seq++
	return fmt.Sprintf("id-%04d", seq)
}

func newUser(username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           nextID(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newPost(userID, body string, createdAt time.Time, tags ...string) *models.Post {
	return &models.Post{
		ID:         nextID(),
		UserID:     userID,
		Body:       body,
		Tags:       models.StringArray(tags),
		Visibility: models.VisibilityPublic,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// Run executes the full conformance suite against the backend produced
// by factory
func Run(t *testing.T, factory Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, factory) })
	t.Run("UserCounters", func(t *testing.T) { testUserCounters(t, factory) })
	t.Run("Posts", func(t *testing.T) { testPosts(t, factory) })
	t.Run("PostModeration", func(t *testing.T) { testPostModeration(t, factory) })
	t.Run("Likes", func(t *testing.T) { testLikes(t, factory) })
	t.Run("SavedPosts", func(t *testing.T) { testSavedPosts(t, factory) })
	t.Run("Follows", func(t *testing.T) { testFollows(t, factory) })
	t.Run("Comments", func(t *testing.T) { testComments(t, factory) })
	t.Run("Contexts", func(t *testing.T) { testContexts(t, factory) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, factory) })
	t.Run("Reports", func(t *testing.T) { testReports(t, factory) })
}

func testUsers(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("Alice")
	require.NoError(t, st.Users().Create(ctx, alice))

	// Lookups are case-insensitive. The password hash must survive the
	// round trip even though models.User keeps it out of API JSON, or
	// login verification has nothing to compare against.
	got, err := st.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	got, err = st.Users().GetByEmail(ctx, "Alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	got, err = st.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "hash", got.PasswordHash)

	_, err = st.Users().GetByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Username and email are unique
	dup := newUser("Alice")
	dup.Email = "other@example.com"
	require.ErrorIs(t, st.Users().Create(ctx, dup), store.ErrDuplicate)

	dup = newUser("someone")
	dup.Email = alice.Email
	require.ErrorIs(t, st.Users().Create(ctx, dup), store.ErrDuplicate)

	// Update survives a rename and the old name frees up
	alice.Username = "alicia"
	require.NoError(t, st.Users().Update(ctx, alice))
	_, err = st.Users().GetByUsername(ctx, "Alice")
	require.ErrorIs(t, err, store.ErrNotFound)
	got, err = st.Users().GetByUsername(ctx, "alicia")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	// Search matches substrings case-insensitively
	bob := newUser("bobcat")
	require.NoError(t, st.Users().Create(ctx, bob))
	found, err := st.Users().Search(ctx, "OBC")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, bob.ID, found[0].ID)

	all, err := st.Users().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func testUserCounters(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	bob := newUser("bob")
	require.NoError(t, st.Users().Create(ctx, alice))
	require.NoError(t, st.Users().Create(ctx, bob))

	require.NoError(t, st.Users().AdjustFollowCounts(ctx, alice.ID, bob.ID, 1))
	a, err := st.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 1, a.FollowingCount)
	b, err := st.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, 1, b.FollowerCount)

	// Decrements floor at zero even when applied twice
	require.NoError(t, st.Users().AdjustFollowCounts(ctx, alice.ID, bob.ID, -1))
	require.NoError(t, st.Users().AdjustFollowCounts(ctx, alice.ID, bob.ID, -1))
	a, err = st.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Zero(t, a.FollowingCount)
	b, err = st.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Zero(t, b.FollowerCount)

	require.NoError(t, st.Users().IncrementPostCount(ctx, alice.ID, 1))
	require.NoError(t, st.Users().IncrementPostCount(ctx, alice.ID, -1))
	require.NoError(t, st.Users().IncrementPostCount(ctx, alice.ID, -1))
	a, err = st.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Zero(t, a.PostCount)
}

func testPosts(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, st.Users().Create(ctx, alice))

	base := time.Now().UTC().Add(-time.Hour)
	p1 := newPost(alice.ID, "oldest", base, "art")
	p2 := newPost(alice.ID, "middle", base.Add(time.Minute), "art", "ink")
	p3 := newPost(alice.ID, "newest", base.Add(2*time.Minute))
	for _, p := range []*models.Post{p1, p2, p3} {
		require.NoError(t, st.Posts().Create(ctx, p))
	}

	listed, err := st.Posts().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "newest", listed[0].Body)
	require.Equal(t, "oldest", listed[2].Body)

	limited, err := st.Posts().List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	byUser, err := st.Posts().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 3)

	tagged, err := st.Posts().ListByTag(ctx, "ink", 0)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	require.Equal(t, p2.ID, tagged[0].ID)

	p1.Body = "edited"
	require.NoError(t, st.Posts().Update(ctx, p1))
	got, err := st.Posts().GetByID(ctx, p1.ID)
	require.NoError(t, err)
	require.Equal(t, "edited", got.Body)

	require.NoError(t, st.Posts().Delete(ctx, p3.ID))
	_, err = st.Posts().GetByID(ctx, p3.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	listed, err = st.Posts().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}

func testPostModeration(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, st.Users().Create(ctx, alice))
	base := time.Now().UTC()
	p1 := newPost(alice.ID, "one", base)
	p2 := newPost(alice.ID, "two", base.Add(time.Second))
	require.NoError(t, st.Posts().Create(ctx, p1))
	require.NoError(t, st.Posts().Create(ctx, p2))

	require.NoError(t, st.Posts().SetVisibilityForUser(ctx, alice.ID, models.VisibilityHidden, "User banned"))
	for _, id := range []string{p1.ID, p2.ID} {
		got, err := st.Posts().GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, models.VisibilityHidden, got.Visibility)
		require.Equal(t, "User banned", got.HiddenReason)
	}

	require.NoError(t, st.Posts().SetVisibilityForUser(ctx, alice.ID, models.VisibilityPublic, ""))
	got, err := st.Posts().GetByID(ctx, p1.ID)
	require.NoError(t, err)
	require.Equal(t, models.VisibilityPublic, got.Visibility)
	require.Empty(t, got.HiddenReason)

	// Comment counter floors at zero
	require.NoError(t, st.Posts().IncrementCommentCount(ctx, p1.ID, 1))
	require.NoError(t, st.Posts().IncrementCommentCount(ctx, p1.ID, -1))
	require.NoError(t, st.Posts().IncrementCommentCount(ctx, p1.ID, -1))
	got, err = st.Posts().GetByID(ctx, p1.ID)
	require.NoError(t, err)
	require.Zero(t, got.CommentCount)
}

func testLikes(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	bob := newUser("bob")
	require.NoError(t, st.Users().Create(ctx, alice))
	require.NoError(t, st.Users().Create(ctx, bob))
	base := time.Now().UTC()
	p1 := newPost(alice.ID, "one", base)
	p2 := newPost(alice.ID, "two", base.Add(time.Second))
	require.NoError(t, st.Posts().Create(ctx, p1))
	require.NoError(t, st.Posts().Create(ctx, p2))

	require.NoError(t, st.Likes().Add(ctx, bob.ID, p1.ID))
	require.ErrorIs(t, st.Likes().Add(ctx, bob.ID, p1.ID), store.ErrDuplicate)

	exists, err := st.Likes().Exists(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	require.True(t, exists)

	count, err := st.Likes().Count(ctx, p1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, st.Likes().Add(ctx, bob.ID, p2.ID))
	received, err := st.Likes().CountReceivedByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 2, received)

	require.NoError(t, st.Likes().Remove(ctx, bob.ID, p1.ID))
	require.ErrorIs(t, st.Likes().Remove(ctx, bob.ID, p1.ID), store.ErrNotFound)
	exists, err = st.Likes().Exists(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func testSavedPosts(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	bob := newUser("bob")
	require.NoError(t, st.Users().Create(ctx, alice))
	require.NoError(t, st.Users().Create(ctx, bob))
	base := time.Now().UTC()
	p1 := newPost(alice.ID, "one", base)
	p2 := newPost(alice.ID, "two", base.Add(time.Second))
	require.NoError(t, st.Posts().Create(ctx, p1))
	require.NoError(t, st.Posts().Create(ctx, p2))

	require.NoError(t, st.SavedPosts().Add(ctx, bob.ID, p1.ID))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, st.SavedPosts().Add(ctx, bob.ID, p2.ID))

	saves, err := st.SavedPosts().ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, saves, 2)
	// Newest save first
	require.Equal(t, p2.ID, saves[0].PostID)
	require.False(t, saves[0].SavedAt.IsZero())

	count, err := st.SavedPosts().Count(ctx, p1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, st.SavedPosts().Remove(ctx, bob.ID, p1.ID))
	exists, err := st.SavedPosts().Exists(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func testFollows(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	bob := newUser("bob")
	carol := newUser("carol")
	for _, u := range []*models.User{alice, bob, carol} {
		require.NoError(t, st.Users().Create(ctx, u))
	}

	require.NoError(t, st.Follows().Add(ctx, bob.ID, alice.ID))
	require.NoError(t, st.Follows().Add(ctx, carol.ID, alice.ID))
	require.ErrorIs(t, st.Follows().Add(ctx, bob.ID, alice.ID), store.ErrDuplicate)

	exists, err := st.Follows().Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, exists)

	followers, err := st.Follows().CountFollowers(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 2, followers)
	following, err := st.Follows().CountFollowing(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, 1, following)

	edges, err := st.Follows().ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	require.NoError(t, st.Follows().Remove(ctx, bob.ID, alice.ID))
	require.ErrorIs(t, st.Follows().Remove(ctx, bob.ID, alice.ID), store.ErrNotFound)
}

func testComments(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, st.Users().Create(ctx, alice))
	post := newPost(alice.ID, "post", time.Now().UTC())
	require.NoError(t, st.Posts().Create(ctx, post))

	base := time.Now().UTC().Add(-time.Minute)
	c1 := &models.Comment{ID: nextID(), PostID: post.ID, UserID: alice.ID, Text: "first", CreatedAt: base}
	c2 := &models.Comment{ID: nextID(), PostID: post.ID, UserID: alice.ID, Text: "second", CreatedAt: base.Add(time.Second)}
	require.NoError(t, st.Comments().Create(ctx, c1))
	require.NoError(t, st.Comments().Create(ctx, c2))

	// Oldest first
	listed, err := st.Comments().ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "first", listed[0].Text)

	count, err := st.Comments().Count(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, st.Comments().Delete(ctx, c1.ID))
	require.ErrorIs(t, st.Comments().Delete(ctx, c1.ID), store.ErrNotFound)

	require.NoError(t, st.Comments().DeleteByPost(ctx, post.ID))
	listed, err = st.Comments().ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func testContexts(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	bob := newUser("bob")
	require.NoError(t, st.Users().Create(ctx, alice))
	require.NoError(t, st.Users().Create(ctx, bob))
	post := newPost(alice.ID, "post", time.Now().UTC())
	require.NoError(t, st.Posts().Create(ctx, post))

	now := time.Now().UTC()
	pc := &models.Context{ID: nextID(), PostID: post.ID, UserID: bob.ID, Text: "context", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, st.Contexts().Create(ctx, pc))

	// One context per post
	second := &models.Context{ID: nextID(), PostID: post.ID, UserID: bob.ID, Text: "another", CreatedAt: now, UpdatedAt: now}
	require.ErrorIs(t, st.Contexts().Create(ctx, second), store.ErrDuplicate)

	got, err := st.Contexts().GetByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, pc.ID, got.ID)

	// Voting recomputes the tally atomically; a re-vote replaces the old one
	voted, err := st.Contexts().Vote(ctx, pc.ID, alice.ID, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, 1, voted.Upvotes)
	require.True(t, voted.Approved)

	voted, err = st.Contexts().Vote(ctx, pc.ID, alice.ID, models.VoteDown)
	require.NoError(t, err)
	require.Equal(t, 0, voted.Upvotes)
	require.Equal(t, 1, voted.Downvotes)
	require.False(t, voted.Approved)

	// Pending queue shrinks when a context gets reviewed
	pending, err := st.Contexts().ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved := true
	reviewedAt := time.Now().UTC()
	got.AdminApproved = &approved
	got.AdminReviewedAt = &reviewedAt
	got.AdminReviewedBy = &alice.ID
	require.NoError(t, st.Contexts().Update(ctx, got))

	pending, err = st.Contexts().ListPending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.NoError(t, st.Contexts().DeleteByPost(ctx, post.ID))
	_, err = st.Contexts().GetByPost(ctx, post.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testNotifications(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, st.Users().Create(ctx, alice))

	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		n := &models.Notification{
			ID:        nextID(),
			UserID:    alice.ID,
			Type:      models.NotificationLike,
			Message:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.Notifications().Create(ctx, n))
	}

	// Newest first, bounded by limit
	listed, err := st.Notifications().ListByUser(ctx, alice.ID, 3)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "message 4", listed[0].Message)

	unread, err := st.Notifications().UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 5, unread)

	// MarkRead is scoped to the owner
	require.ErrorIs(t, st.Notifications().MarkRead(ctx, listed[0].ID, "someone-else"), store.ErrNotFound)
	require.NoError(t, st.Notifications().MarkRead(ctx, listed[0].ID, alice.ID))
	unread, err = st.Notifications().UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 4, unread)

	require.NoError(t, st.Notifications().MarkAllRead(ctx, alice.ID))
	unread, err = st.Notifications().UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func testReports(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, st.Users().Create(ctx, alice))

	r := &models.Report{
		ID:         nextID(),
		TargetType: models.ReportTargetPost,
		TargetID:   "some-post",
		ReporterID: alice.ID,
		Reason:     "spam",
		Status:     models.ReportStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.Reports().Create(ctx, r))

	pending, err := st.Reports().ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, st.Reports().Dismiss(ctx, r.ID, alice.ID))
	require.ErrorIs(t, st.Reports().Dismiss(ctx, r.ID, alice.ID), store.ErrNotFound)

	got, err := st.Reports().GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusDismissed, got.Status)
	require.NotNil(t, got.DismissedAt)

	pending, err = st.Reports().ListPending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}
