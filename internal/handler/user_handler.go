package handler

import (
	"net/http"

	"pastpapers-go/internal/middleware"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserHandler 负责注册、登录、登出和当前用户信息。
type UserHandler struct {
	userService    service.UserService
	profileService service.ProfileService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService, profileService service.ProfileService) *UserHandler {
	return &UserHandler{userService: userService, profileService: profileService}
}

// Register 处理用户注册请求，JSON 与表单提交均可。
func (h *UserHandler) Register(c *gin.Context) {
	var form service.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		respond(c, http.StatusBadRequest, "Invalid request payload.", nil)
		return
	}

	user, err := h.userService.Register(form)
	if err != nil {
		log.Warnf("Register: User registration failed for '%s', error: %v", form.Username, err)
		respondError(c, err)
		return
	}

	log.Infof("User '%s' registered successfully", user.Username)
	respond(c, http.StatusCreated, "Account created successfully! You can now log in.", user)
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginPage 告诉客户端需要登录，并回传 next 参数。
func (h *UserHandler) LoginPage(c *gin.Context) {
	respond(c, http.StatusUnauthorized, "Please log in to continue.", gin.H{"next": c.Query("next")})
}

// Login 校验凭证，签发 token 并把用户名写入会话。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		respond(c, http.StatusBadRequest, "Username and password are required.", nil)
		return
	}

	accessToken, refreshToken, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		log.Warnf("Login: User authentication failed for '%s', error: %v", req.Username, err)
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUsernameKey, req.Username)
	if err := session.Save(); err != nil {
		log.Errorf("Login: 保存会话失败, username: %s, error: %v", req.Username, err)
		respondError(c, err)
		return
	}

	log.Infof("User '%s' logged in successfully", req.Username)
	data := gin.H{"token": accessToken, "refreshToken": refreshToken}
	if next := c.Query("next"); next != "" {
		data["next"] = next
	}
	ok(c, "Login successful", data)
}

// Me 返回当前登录用户及其资料。
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	view, err := h.profileService.GetAccount(c.Request.Context(), user, false)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "success", gin.H{"user": user, "profile": view.Profile})
}

// Logout 注销 Bearer token 并清空会话。
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		log.Error("Logout: Failed to logout", err)
		respond(c, http.StatusInternalServerError, "Logout failed.", nil)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Errorf("Logout: 清空会话失败: %v", err)
	}

	if user := middleware.CurrentUser(c); user != nil {
		log.Infof("User '%s' logged out successfully", user.Username)
	}
	ok(c, "You have been logged out.", nil)
}
