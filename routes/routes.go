package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/koru-backend/controllers"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/middleware"
	"github.com/vnkhanh/koru-backend/ws"
)

// Deps is everything the router hands out to routes. Trial may be nil, in
// which case guests are not limited.
type Deps struct {
	Log         *logger.Logger
	Verifier    *middleware.TokenVerifier
	Trial       middleware.TrialConsumer
	Hub         *ws.Hub
	CORSOrigins []string

	Gemini   *controllers.GeminiHandler
	Learning *controllers.LearningHandler
	History  *controllers.HistoryHandler
	Quizzes  *controllers.QuizHandler
	Health   *controllers.HealthHandler
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language", middleware.HeaderGuestID, middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	r.Use(middleware.RequestID(), middleware.RequestLogger(d.Log), gin.Recovery())
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(d.CORSOrigins)))
	}

	r.GET("/ping", d.Health.Ping)
	r.GET("/health", d.Health.Health)
	r.GET("/ws/history", ws.HistoryHandler(d.Hub, d.Verifier.UserID, d.CORSOrigins, d.Log))

	api := r.Group("/api")

	// Model gateway, same contract as the hosted function the web app calls.
	api.Any("/gemini", d.Gemini.Handle)

	var trial gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if d.Trial != nil {
		trial = middleware.GuestTrial(d.Trial, d.Log)
	}

	learn := api.Group("")
	learn.Use(middleware.OptionalAuthMiddleware(d.Verifier))
	{
		// Explanations consume the guest trial inside the service, after the
		// guest cache has had a chance to answer.
		learn.POST("/explanations", d.Learning.Explain)
		learn.POST("/clarifications", d.Learning.Clarify)
		learn.POST("/quizzes/generate", trial, d.Learning.GenerateQuiz)
		learn.POST("/quizzes/feedback", d.Learning.QuizFeedback)
		learn.POST("/titles/refine", d.Learning.RefineTitle)
	}

	user := api.Group("")
	user.Use(middleware.AuthMiddleware(d.Verifier), middleware.RequireRoles(middleware.RoleAuthenticated))
	{
		user.GET("/history", d.History.List)
		user.PATCH("/history/:id/pin", d.History.Pin)
		user.DELETE("/history/:id", d.History.Delete)

		user.GET("/quizzes", d.Quizzes.List)
		user.GET("/quizzes/:id", d.Quizzes.Get)
		user.PATCH("/quizzes/:id", d.Quizzes.Update)
		user.POST("/quizzes/:id/result", d.Quizzes.RecordResult)
		user.POST("/quizzes/:id/share", d.Quizzes.Share)
		user.DELETE("/quizzes/:id", d.Quizzes.Delete)
	}

	return r
}
