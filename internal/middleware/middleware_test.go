package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pastpapers-go/internal/model"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUsers 只实现中间件用到的查询，其余方法不会被调用。
type stubUsers struct {
	service.UserService
	users   map[string]*model.User
	revoked map[string]bool
}

func (s *stubUsers) GetProfile(username string) (*model.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

func (s *stubUsers) IsRevoked(_ context.Context, tok string) bool {
	return s.revoked[tok]
}

func newEngine(users *stubUsers, jwtManager *token.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("s", cookie.NewStore([]byte("secret"))), Theme())
	r.GET("/login-as/:name", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(SessionUsernameKey, c.Param("name"))
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	r.GET("/private", AuthMiddleware(jwtManager, users), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username+":"+CurrentTheme(c))
	})
	r.GET("/staff", AuthMiddleware(jwtManager, users), StaffRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := token.NewJWTManager("secret", 1, 1)
	users := &stubUsers{
		users: map[string]*model.User{
			"alice": {ID: 1, Username: "alice", Role: model.RoleUser},
			"sam":   {ID: 2, Username: "sam", Role: model.RoleStaff},
		},
		revoked: map[string]bool{},
	}
	r := newEngine(users, jwtManager)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/private?x=1", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fprivate%3Fx%3D1", w.Header().Get("Location"))

	tok, err := jwtManager.GenerateToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice:light", w.Body.String())

	refresh, err := jwtManager.GenerateRefreshToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	assert.Equal(t, http.StatusFound, serve(r, req).Code, "refresh tokens are not accepted as access tokens")

	users.revoked[tok] = true
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusFound, serve(r, req).Code)
}

func TestSessionAuthAndStaffRequired(t *testing.T) {
	users := &stubUsers{users: map[string]*model.User{
		"alice": {ID: 1, Username: "alice", Role: model.RoleUser},
		"sam":   {ID: 2, Username: "sam", Role: model.RoleAdmin},
	}}
	r := newEngine(users, token.NewJWTManager("secret", 1, 1))

	loginAs := func(name string) []*http.Cookie {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/login-as/"+name, nil))
		return w.Result().Cookies()
	}
	withCookies := func(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return serve(r, req)
	}

	alice := loginAs("alice")
	assert.Equal(t, http.StatusOK, withCookies("/private", alice).Code)
	w := withCookies("/staff", alice)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=%2Fstaff", w.Header().Get("Location"))

	sam := loginAs("sam")
	assert.Equal(t, http.StatusOK, withCookies("/staff", sam).Code)

	ghost := loginAs("ghost")
	assert.Equal(t, http.StatusFound, withCookies("/private", ghost).Code)
}

func TestIsValidTheme(t *testing.T) {
	assert.True(t, IsValidTheme("light"))
	assert.True(t, IsValidTheme("dark"))
	assert.False(t, IsValidTheme("purple"))
	assert.False(t, IsValidTheme(""))
}
