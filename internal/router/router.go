// Package router 负责组装 gin 引擎：全局中间件、会话与所有路由。
package router

import (
	"pastpapers-go/internal/handler"
	"pastpapers-go/internal/middleware"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Deps 是路由需要的全部依赖。
type Deps struct {
	JWTManager      *token.JWTManager
	UserService     service.UserService
	PaperService    service.PaperService
	BrowseService   service.BrowseService
	DownloadService service.DownloadService
	ProfileService  service.ProfileService
	AdminService    service.AdminService
	BulkService     service.BulkUploadService
	SearchService   service.SearchService

	SessionName  string
	SessionStore sessions.Store
	CORSOrigins  []string

	// MediaRoot 非空时（local 存储驱动）在 MediaURL 下提供已上传的文件
	MediaURL  string
	MediaRoot string
}

// New 创建注册好所有路由的 gin 引擎。
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(),
		gin.Recovery(),
		middleware.CORS(d.CORSOrigins),
		sessions.Sessions(d.SessionName, d.SessionStore),
		middleware.Theme(),
	)

	auth := middleware.AuthMiddleware(d.JWTManager, d.UserService)
	optionalAuth := middleware.OptionalAuth(d.JWTManager, d.UserService)
	staff := middleware.StaffRequired()

	pageHandler := handler.NewPageHandler(d.BrowseService)
	paperHandler := handler.NewPaperHandler(d.PaperService, d.BrowseService, d.DownloadService)
	accountHandler := handler.NewAccountHandler(d.ProfileService)
	userHandler := handler.NewUserHandler(d.UserService, d.ProfileService)
	authHandler := handler.NewAuthHandler(d.UserService)
	adminHandler := handler.NewAdminHandler(d.AdminService, d.BulkService, d.ProfileService)
	searchHandler := handler.NewSearchHandler(d.SearchService)

	// 公开页面
	r.GET("/", optionalAuth, pageHandler.Landing)
	r.GET("/login/", userHandler.LoginPage)
	r.POST("/login/", userHandler.Login)
	r.POST("/register/", userHandler.Register)
	r.POST("/logout/", optionalAuth, userHandler.Logout)
	r.Any("/set-theme/", handler.SetTheme)
	r.GET("/view/", paperHandler.View)

	// 需要登录的页面
	authed := r.Group("/", auth)
	{
		authed.GET("/home/", pageHandler.Home)
		authed.GET("/my-files/", paperHandler.MyFiles)
		authed.GET("/download/:id/", paperHandler.Download)
		authed.GET("/account/", accountHandler.Show)
		authed.POST("/account/", accountHandler.Update)
		authed.GET("/search/", searchHandler.Search)
		if d.MediaRoot != "" {
			authed.StaticFS(d.MediaURL, gin.Dir(d.MediaRoot, false))
		}
	}

	// 工作人员页面
	staffPages := r.Group("/", auth, staff)
	{
		staffPages.GET("/upload/", paperHandler.UploadForm)
		staffPages.POST("/upload/", paperHandler.Upload)
		staffPages.GET("/edit/:id/", paperHandler.EditForm)
		staffPages.POST("/edit/:id/", paperHandler.Edit)
		staffPages.POST("/delete/:id/", paperHandler.Delete)
	}

	// 后台工具，需要同时通过认证和工作人员授权两个中间件
	admin := r.Group("/admin", auth, staff)
	{
		admin.GET("/papers/", adminHandler.ListPapers)
		admin.POST("/papers/bulk-upload/", adminHandler.BulkUpload)
		admin.POST("/papers/export/", adminHandler.ExportZip)
		admin.POST("/papers/reset-downloads/", adminHandler.ResetDownloads)
		admin.POST("/papers/:id/attachments/", adminHandler.AddAttachments)
		admin.GET("/profiles/", adminHandler.ListProfiles)
	}

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/auth/refreshToken", authHandler.RefreshToken)

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的路由 (仅限登录用户访问)
			users.GET("/me", auth, userHandler.Me)
			users.POST("/logout", auth, userHandler.Logout)
		}
	}

	return r
}
