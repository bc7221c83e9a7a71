package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"guessr/handlers"
	"guessr/middleware"
)

// NewRouter returns an engine with the middleware every route shares.
func NewRouter(logger zerolog.Logger, origins []string, secureCookies bool) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.CORS(origins),
		middleware.CSRF(secureCookies),
	)
	return router
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	gameHandler *handlers.GameHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	feedHandler *handlers.FeedHandler,
	auth middleware.Authenticator,
) {
	requireAuth := middleware.AuthMiddleware(auth)

	api := router.Group("/api")
	{
		accounts := api.Group("/accounts")
		{
			// Public
			accounts.POST("/register/", authHandler.Register)
			accounts.POST("/login/", authHandler.Login)

			accounts.POST("/logout/", requireAuth, authHandler.Logout)
			accounts.GET("/profile/", requireAuth, authHandler.GetProfile)
			accounts.PUT("/profile/update/", requireAuth, authHandler.UpdateProfile)
		}

		games := api.Group("/games")
		games.Use(requireAuth)
		{
			games.GET("/events/", gameHandler.Events)
			games.POST("/start/", gameHandler.StartRound)
			games.POST("/guess/", gameHandler.SubmitGuess)
			games.POST("/complete/", gameHandler.CompleteRound)
		}

		leaderboards := api.Group("/leaderboards")
		leaderboards.Use(requireAuth)
		{
			leaderboards.GET("/top/", leaderboardHandler.TopScores)
			leaderboards.GET("/weekly/", leaderboardHandler.WeeklyScores)
			leaderboards.GET("/me/", leaderboardHandler.MyStats)
		}
	}

	// Live leaderboard feed
	router.GET("/ws/leaderboard", requireAuth, feedHandler.Leaderboard)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
