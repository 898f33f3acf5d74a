package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/internal/handlers"
	"github.com/peerhub-dev/peerhub/internal/middleware"
	"github.com/peerhub-dev/peerhub/internal/types"
)

func NewRouter() *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.GET("/42", handlers.RedirectTo42)
			auth.GET("/42/callback", handlers.OAuthCallback)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.POST("/refresh", middleware.AuthMiddleware(), handlers.RefreshUserData)
			auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
			auth.GET("/cursus-projects", middleware.AuthMiddleware(), handlers.CursusProjects)
			auth.GET("/search", middleware.AuthMiddleware(), handlers.SearchUsers)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.GetProjects)
			projects.GET("/:slug", handlers.GetProject)
		}

		profile := api.Group("/profile", middleware.AuthMiddleware())
		{
			profile.GET("", handlers.GetProfile)
			profile.PATCH("", handlers.UpdateProfile)
		}

		friends := api.Group("/friends", middleware.AuthMiddleware())
		{
			friends.GET("", handlers.GetFriends)
			friends.GET("/requests", handlers.GetFriendRequests)
			friends.POST("/request", handlers.SendFriendRequest)
			friends.PATCH("/requests/:friendship_id/respond", handlers.RespondToFriendRequest)
			friends.DELETE("/:friendship_id", handlers.RemoveFriend)
			friends.GET("/search", handlers.SearchFriends)
			friends.GET("/search-users", handlers.SearchAllUsers)
		}

		teams := api.Group("/teams", middleware.AuthMiddleware())
		{
			teams.POST("", handlers.CreateTeam)
			teams.GET("/pending", handlers.GetPendingInvites)
			teams.GET("/my-teams", handlers.GetMyTeams)
			teams.GET("/delete-requests", handlers.GetDeleteRequests)
			teams.PATCH("/delete-requests/:request_id/respond", handlers.RespondToDeleteRequest)
			teams.PATCH("/:team_id/respond", handlers.RespondToInvite)
			teams.POST("/:team_id/request-delete", handlers.RequestDeleteTeam)
			teams.DELETE("/:team_id", handlers.DeleteTeam)
			teams.GET("/:team_id/kanban", handlers.GetTeamKanban)
		}
	}

	return router
}
