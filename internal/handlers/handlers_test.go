package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/auth"
	"github.com/arthub/backend/internal/handlers"
	"github.com/arthub/backend/internal/service"
	"github.com/arthub/backend/internal/store/local"
)

type HandlerTestSuite struct {
	suite.Suite
	st     *local.Store
	svc    *service.Service
	router *gin.Engine
}

func (s *HandlerTestSuite) SetupTest() {
	st, err := local.OpenInMemory()
	s.Require().NoError(err)
	s.st = st
	s.svc = service.New(st, auth.NewService([]byte("test-secret")), zap.NewNop())

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	handlers.New(s.svc, zap.NewNop()).RegisterRoutes(s.router)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.st.Close()
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// do performs a JSON request; token may be empty for anonymous calls
func (s *HandlerTestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerUser signs a user up through the API and returns their token
func (s *HandlerTestSuite) registerUser(username string) string {
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decode(w)["token"].(string)
}

func (s *HandlerTestSuite) registerAdmin(username string) string {
	token := s.registerUser(username)
	_, err := s.svc.PromoteAdmin(s.T().Context(), username)
	s.Require().NoError(err)
	return token
}

// createPost publishes a post and returns its ID
func (s *HandlerTestSuite) createPost(token, body string) string {
	w := s.do(http.MethodPost, "/api/posts", token, gin.H{"body": body})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decode(w)["id"].(string)
}

func (s *HandlerTestSuite) TestRegisterAndLogin() {
	s.registerUser("alice")

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"usernameOrEmail": "alice",
		"password":        "password123",
	})
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(s.decode(w)["token"])

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"usernameOrEmail": "alice",
		"password":        "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestShortPasswordAccepted() {
	// The contract only requires the password to be present
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{
		"usernameOrEmail": "alice",
		"password":        "pw123",
	})
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestRegisterDuplicateIsBadRequest() {
	s.registerUser("alice")
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestRegisterValidation() {
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ab",
		"email":    "ab@example.com",
		"password": "password123",
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "valid",
		"email":    "valid@example.com",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestCreatePostRequiresAuth() {
	w := s.do(http.MethodPost, "/api/posts", "", gin.H{"body": "anonymous"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/posts", "garbage-token", gin.H{"body": "anonymous"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestFeedShowsPost() {
	alice := s.registerUser("alice")
	s.createPost(alice, "hello feed")

	// Anonymous read works
	w := s.do(http.MethodGet, "/api/posts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	posts := s.decode(w)["posts"].([]interface{})
	s.Require().Len(posts, 1)
	post := posts[0].(map[string]interface{})
	s.Equal("hello feed", post["body"])
	s.Equal("alice", post["username"])
}

func (s *HandlerTestSuite) TestLikeToggle() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "likeable")

	w := s.do(http.MethodPost, "/api/posts/"+postID+"/like", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(true, body["liked"])
	s.Equal(float64(1), body["likes_count"])

	w = s.do(http.MethodPost, "/api/posts/"+postID+"/like", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body = s.decode(w)
	s.Equal(false, body["liked"])
	s.Equal(float64(0), body["likes_count"])
}

func (s *HandlerTestSuite) TestSavedPostsRoute() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "keeper")

	w := s.do(http.MethodPost, "/api/posts/"+postID+"/save", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["saved"])

	w = s.do(http.MethodGet, "/api/posts/saved", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["posts"], 1)
}

func (s *HandlerTestSuite) TestCommentFlow() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "discuss")

	w := s.do(http.MethodPost, "/api/posts/"+postID+"/comments", bob, gin.H{"text": "nice"})
	s.Require().Equal(http.StatusCreated, w.Code)
	commentID := s.decode(w)["id"].(string)

	w = s.do(http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["comments"], 1)

	// A bystander cannot delete someone else's comment
	carol := s.registerUser("carol")
	w = s.do(http.MethodDelete, "/api/comments/"+commentID, carol, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/comments/"+commentID, bob, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestContextFlow() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	carol := s.registerUser("carol")
	postID := s.createPost(alice, "needs context")

	// The author cannot annotate their own post
	w := s.do(http.MethodPost, "/api/posts/"+postID+"/context", alice, gin.H{"text": "mine"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/posts/"+postID+"/context", bob, gin.H{"text": "actually..."})
	s.Require().Equal(http.StatusCreated, w.Code)

	// Second context on the same post is rejected
	w = s.do(http.MethodPost, "/api/posts/"+postID+"/context", carol, gin.H{"text": "another"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/posts/"+postID+"/context/vote", carol, gin.H{"vote": "up"})
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal(float64(1), body["upvotes"])
	s.Equal(true, body["approved"])

	w = s.do(http.MethodGet, "/api/posts/"+postID+"/context", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestFollowRoutes() {
	alice := s.registerUser("alice")
	s.registerUser("bob")

	bobID := s.userID("bob")
	w := s.do(http.MethodPost, "/api/follow/"+bobID, alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	// Self-follow is rejected
	aliceID := s.userID("alice")
	w = s.do(http.MethodPost, "/api/follow/"+aliceID, alice, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/follow/"+bobID, alice, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestNotificationRoutes() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "p")

	w := s.do(http.MethodPost, "/api/posts/"+postID+"/like", bob, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/notifications/unread-count", alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), s.decode(w)["unread"])

	w = s.do(http.MethodPut, "/api/notifications/mark-all-read", alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/notifications/unread-count", alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), s.decode(w)["unread"])
}

func (s *HandlerTestSuite) TestProfileRoutes() {
	alice := s.registerUser("alice")

	w := s.do(http.MethodGet, "/api/profile", alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("alice", s.decode(w)["username"])

	w = s.do(http.MethodPut, "/api/profile/username", alice, gin.H{"username": "alicia"})
	s.Require().Equal(http.StatusOK, w.Code)

	// Cooldown blocks an immediate second rename
	w = s.do(http.MethodPut, "/api/profile/username", alice, gin.H{"username": "alice3"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/settings", alice, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	settings := s.decode(w)
	s.Equal("alicia", settings["username"])
	s.Len(settings["previous_usernames"], 1)
}

func (s *HandlerTestSuite) TestAdminRoutes() {
	admin := s.registerAdmin("admin")
	alice := s.registerUser("alice")
	s.createPost(alice, "soon hidden")

	// Regular users are shut out of the admin group
	w := s.do(http.MethodGet, "/api/admin/reports", alice, nil)
	s.Equal(http.StatusForbidden, w.Code)

	aliceID := s.userID("alice")
	w = s.do(http.MethodPost, "/api/admin/users/"+aliceID+"/ban", admin, gin.H{"reason": "spam"})
	s.Require().Equal(http.StatusOK, w.Code)

	// The banned user's posts drop out of the feed
	w = s.do(http.MethodGet, "/api/posts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(s.decode(w)["posts"])

	w = s.do(http.MethodPost, "/api/admin/users/"+aliceID+"/unban", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/posts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["posts"], 1)
}

func (s *HandlerTestSuite) TestReportFlow() {
	admin := s.registerAdmin("admin")
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")
	postID := s.createPost(alice, "reported")

	w := s.do(http.MethodPost, "/api/posts/"+postID+"/report", bob, gin.H{"reason": "spam"})
	s.Require().Equal(http.StatusCreated, w.Code)
	reportID := s.decode(w)["id"].(string)

	w = s.do(http.MethodGet, "/api/admin/reports", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["reports"], 1)

	w = s.do(http.MethodPut, "/api/admin/reports/"+reportID+"/dismiss", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/admin/reports", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(s.decode(w)["reports"])
}

func (s *HandlerTestSuite) TestTrendingTags() {
	alice := s.registerUser("alice")
	w := s.do(http.MethodPost, "/api/posts", alice, gin.H{"body": "tagged", "tags": []string{"art", "ink"}})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/tags/trending", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["tags"], 2)

	w = s.do(http.MethodGet, "/api/tags/ink", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["posts"], 1)
}

func (s *HandlerTestSuite) userID(username string) string {
	user, err := s.svc.GetUserByUsername(s.T().Context(), username)
	s.Require().NoError(err)
	return user.ID
}
