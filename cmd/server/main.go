package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"quizduel/backend/internal/arena"
	"quizduel/backend/internal/auth"
	"quizduel/backend/internal/config"
	"quizduel/backend/internal/database"
	"quizduel/backend/internal/handler"
	"quizduel/backend/internal/ws"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "quizduel/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           QuizDuel API
// @version         1.0
// @description     REST API for the QuizDuel realtime quiz battle service. Match play itself runs over the /ws websocket.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Wire the realtime match engine
	hub := ws.NewHub(logger)
	engine := arena.NewEngine(
		arena.NewGormStore(database.DB),
		arena.NewRegistry(),
		hub,
		arena.DefaultConfig(),
		logger,
	)
	hub.SetEngine(engine)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Realtime match play
	router.GET("/ws", hub.Handle)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.GET("/:id", handler.GetUserByID)
		}

		// Category routes (protected)
		categoryRoutes := apiV1.Group("/categories")
		categoryRoutes.Use(auth.AuthMiddleware())
		{
			categoryRoutes.GET("", handler.GetCategories)
		}

		// Leaderboard (protected)
		apiV1.GET("/leaderboard", auth.AuthMiddleware(), handler.GetLeaderboard)

		// Match records (protected)
		apiV1.GET("/matches/:id", auth.AuthMiddleware(), handler.GetMatchByID)

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			// Category CRUD
			categories := adminRoutes.Group("/categories")
			{
				categories.POST("", handler.CreateCategory)
				categories.PUT("/:id", handler.UpdateCategory)
				categories.DELETE("/:id", handler.DeleteCategory)
			}

			// Question CRUD
			questions := adminRoutes.Group("/questions")
			{
				questions.GET("", handler.GetQuestions)
				questions.POST("", handler.CreateQuestion)
				questions.PUT("/:id", handler.UpdateQuestion)
				questions.POST("/:id/approve", handler.ApproveQuestion)
				questions.DELETE("/:id", handler.DeleteQuestion)
			}
		}
	}

	addr := ":" + config.AppConfig.Port
	fmt.Println("Server is running on " + addr)
	fmt.Println("Swagger UI is available at http://localhost" + addr + "/swagger/index.html")
	log.Fatal(router.Run(addr))
}
