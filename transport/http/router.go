package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shelby2770/testsso/ports"
	"github.com/shelby2770/testsso/server"
)

// SetupRouter sets up the Gin router
func SetupRouter(ssoService *server.Service, tokenizer ports.Tokenizer) *gin.Engine {
	router := gin.Default()

	// Create handlers
	handlers := NewSSOHandlers(ssoService)

	api := router.Group("/api")
	{
		api.POST("/register/challenge/", handlers.RegisterChallenge)
		api.POST("/register/verify/", handlers.RegisterVerify)
		api.POST("/login/challenge/", handlers.LoginChallenge)
		api.POST("/login/verify/", handlers.LoginVerify)
		api.POST("/verify-token/", handlers.VerifyToken)
		api.POST("/auth/clear-challenges/", handlers.ClearChallenges)
	}

	// Protected routes
	protected := router.Group("/api")
	protected.Use(AuthMiddleware(tokenizer))
	{
		protected.GET("/profile/", handlers.Profile)
	}

	return router
}
