package router

import "github.com/gin-gonic/gin"

// setupHealthRoutes 存活检查，不挂在版本前缀下
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.systemHandler.Liveness)
}

// setupSystemRoutes 系统信息路由
func (r *Router) setupSystemRoutes(api *gin.RouterGroup) {
	api.GET("/system/info", r.systemHandler.SystemInfo)
}
