package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_uuid "github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"hrassist/controller"
	"hrassist/model"
	"hrassist/platform"
	"hrassist/service"
	"hrassist/tools"
)

// RequestIDMiddleware ...
// Generate a unique ID and attach it to each request for future reference or use
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := _uuid.New()
		c.Writer.Header().Set("X-Request-Id", uuid.String())
		c.Set("requestId", uuid.String())
		c.Next()
	}
}

func LogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		logger.Infof(
			" [%s] %d | %v | %s | %s | %s | %s ",
			c.GetString("requestId"),
			c.Writer.Status(),
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
			c.Request.UserAgent(),
		)
	}
}

// TokenAuthMiddleware ...
// JWT Authentication middleware attached to each request that needs to be authenitcated to
// validate the access_token in the header
func TokenAuthMiddleware(auth *controller.AuthController) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.TokenValid(c)
		c.Next()
	}
}

func main() {
	fmt.Println("Server started...")

	//Load the .env file
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("failed to load the env file")
	}

	cfg := platform.LoadConfig()
	logger := platform.NewAppLogger("./log", "hrassist")

	db, err := platform.NewDB(cfg)
	if err != nil {
		logger.Fatalf("failed to connect database: %s", err)
	}
	if err := model.InstallDB(db); err != nil {
		logger.Fatalf("failed to migrate database: %s", err)
	}
	if cfg.SeedDB {
		if err := model.SeedDatabase(db); err != nil {
			logger.Warnf("failed to seed database: %s", err)
		}
	}

	llm := platform.NewLLMClient(cfg)

	retriever := service.NewDocRetriever(llm, logger)
	if err := retriever.LoadDir(context.Background(), cfg.DocsDir); err != nil {
		logger.Warnf("failed to load policy documents: %s", err)
	}

	registry := tools.NewRegistry(retriever, llm, cfg.FormsDir, cfg.FilledFormsDir, logger)

	tokens := service.NewTokenService(cfg.AccessSecret)
	users := service.NewUserService(db, tokens, logger)
	resolver := service.NewResolver(db, logger)
	chat := service.NewChatService(db, llm, registry, cfg.MaxToolRounds, logger)
	schedule := service.NewScheduleService(db, cfg.SMTP, logger)
	store := service.NewMessageStore(db, logger)

	auth := controller.NewAuthController(tokens, logger)
	userCtrl := controller.NewUserController(users, logger)
	chatCtrl := controller.NewChatController(chat, resolver, logger)
	convCtrl := controller.NewConversationController(db, logger)
	msgCtrl := controller.NewMessageController(db, store, logger)
	formCtrl := controller.NewFormController(llm, cfg.FormsDir, cfg.FilledFormsDir, logger)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-ID", "X-Thread-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Thread-ID", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/user/register", userCtrl.Register)
		v1.POST("/user/login", userCtrl.Login)
		v1.GET("/user/data/:user_id", TokenAuthMiddleware(auth), userCtrl.GetUserData)

		//Refresh the token
		v1.POST("/token/refresh", auth.Refresh)

		v1.POST("/chat", chatCtrl.Chat)

		v1.POST("/conversations", convCtrl.Create)
		v1.GET("/conversations/user/:user_id", convCtrl.ListByUser)
		v1.GET("/conversations/:conversation_id", convCtrl.Get)
		v1.GET("/conversations/thread/:thread_id", convCtrl.GetByThread)
		v1.PATCH("/conversations/:conversation_id", convCtrl.Update)
		v1.DELETE("/conversations/:conversation_id", convCtrl.Delete)
		v1.GET("/conversations/:conversation_id/messages", convCtrl.ListMessages)

		v1.POST("/messages", msgCtrl.Create)
		v1.GET("/messages", msgCtrl.List)
		v1.GET("/messages/:message_id", msgCtrl.Get)
		v1.DELETE("/messages/:message_id", msgCtrl.Delete)
		v1.GET("/messages/count/:conversation_id", msgCtrl.Count)
		v1.DELETE("/messages/conversation/:conversation_id/all", msgCtrl.DeleteAll)

		v1.POST("/forms/generate", formCtrl.Generate)
		v1.GET("/filled_forms/:filename", formCtrl.Download)
	}

	job := cron.New()
	job.AddFunc("0 2 * * *", schedule.RunNightly)
	job.Start()

	r.Run(":" + cfg.Port)
}
