package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes mounts the public API on router. writeGuards run in front
// of every route that changes the catalog.
func RegisterRoutes(router gin.IRouter, writeGuards ...gin.HandlerFunc) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeGuards...), h)
	}

	api := router.Group("/api")
	{
		api.POST("/recommend", RecommendStore)

		stores := api.Group("/stores")
		{
			stores.GET("", ListStores)
			stores.GET("/nearby", NearbyStores)
			stores.GET("/:storeId", GetStore)
			stores.GET("/:storeId/prices", GetStorePrices)
			stores.POST("", guarded(CreateStore)...)
		}

		items := api.Group("/items")
		{
			items.GET("/:itemId", GetItem)
			items.POST("", guarded(CreateItem)...)
		}

		prices := api.Group("/prices")
		{
			prices.POST("/compare", ComparePrices)
			prices.GET("/:itemId", GetItemPrices)
			prices.POST("", guarded(ReportPrice)...)
		}
	}
}
