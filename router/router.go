package router

import (
	"voicescribe/controllers"
	"voicescribe/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
func Initialize(r *gin.Engine, webhook *controllers.Webhook) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", controllers.Health)
	r.POST("/webhook", webhook.Update)
}
