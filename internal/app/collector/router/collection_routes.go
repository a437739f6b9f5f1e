package router

import "github.com/gin-gonic/gin"

// setupCollectionRoutes 采集与管线健康路由
func (r *Router) setupCollectionRoutes(api *gin.RouterGroup) {
	api.GET("/health", r.collectionHandler.CheckHealth)

	collections := api.Group("/collections")
	{
		collections.POST("/batch", r.collectionHandler.RunBatch)
		collections.POST("/:name/run", r.collectionHandler.RunCollection)
	}
}
