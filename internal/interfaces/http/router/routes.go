// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"nb-studio-api/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	// 用户管理
	users := v1.Group("/users")
	{
		users.GET("/me", h.User.Me)
		users.PUT("/me", h.User.Update)
		users.PUT("/me/password", h.User.ChangePassword)
		users.GET("", middleware.RequireAdmin(), h.User.List)
	}

	// 空间管理
	spaces := v1.Group("/spaces")
	{
		spaces.GET("", h.Space.List)
		spaces.POST("", h.Space.Create)
		spaces.GET("/:sid", h.Space.Get)
		spaces.PUT("/:sid", h.Space.Update)
		spaces.DELETE("/:sid", h.Space.Delete)
	}

	// 笔记管理
	notebooks := v1.Group("/notebooks")
	{
		notebooks.GET("", h.Notebook.List)
		notebooks.POST("", middleware.RequirePermission(middleware.PermNotebookWrite), h.Notebook.Create)
		notebooks.GET("/:nid", h.Notebook.Get)
		notebooks.PUT("/:nid", middleware.RequirePermission(middleware.PermNotebookWrite), h.Notebook.Update)
		notebooks.DELETE("/:nid", middleware.RequirePermission(middleware.PermNotebookWrite), h.Notebook.Delete)

		// 版本控制
		versions := notebooks.Group("/:nid/versions")
		{
			versions.GET("", h.Version.List)
			versions.POST("", middleware.RequirePermission(middleware.PermNotebookWrite), h.Version.Commit)
			versions.GET("/current", h.Version.GetCurrent)
			versions.GET("/diff", h.Version.Diff)
			versions.POST("/prune", middleware.RequirePermission(middleware.PermVersionPrune), h.Version.Prune)
			versions.GET("/:vid", h.Version.Get)
			versions.POST("/:vid/restore", middleware.RequirePermission(middleware.PermVersionRestore), h.Version.Restore)
		}
	}
}
