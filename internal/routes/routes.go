package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/controllers"
	"github.com/pawpack/backend/internal/middleware"
	"github.com/pawpack/backend/internal/models"
	"github.com/pawpack/backend/internal/services"
	"gorm.io/gorm"
)

// Services bundles the shared pipeline state. One instance per process, so every
// request shares the same throttle, call log and cache.
type Services struct {
	Calls     *services.CallLog
	Client    *services.GenerationClient
	Generator services.TextGenerator
	Cache     *services.MemoryCache[[]string]
	Answers   *services.AIAnswerService
	Trigger   *services.AnswerTrigger
	Guidance  *services.GuidanceService
}

// NewServices builds the generation pipeline from configuration.
func NewServices(db *gorm.DB, cfg *config.Config) *Services {
	calls := services.NewCallLog(0)
	client := services.NewGenerationClient(cfg.Generation, services.NewThrottle(cfg.Generation.MinCallInterval), calls)
	return newServicesWithGenerator(db, cfg, calls, client, client)
}

func newServicesWithGenerator(db *gorm.DB, cfg *config.Config, calls *services.CallLog, client *services.GenerationClient, generator services.TextGenerator) *Services {
	cache := services.NewMemoryCache[[]string](cfg.Generation.GuidanceCacheTTL)
	answers := services.NewAIAnswerService(db, generator)
	return &Services{
		Calls:     calls,
		Client:    client,
		Generator: generator,
		Cache:     cache,
		Answers:   answers,
		Trigger:   services.NewAnswerTrigger(answers),
		Guidance:  services.NewGuidanceService(db, generator, cache, cfg.Server.GenerationTimeout),
	}
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, svc *Services, stopChan <-chan struct{}) {
	services.StartCacheSweeper("guidance", svc.Cache, cfg.Generation.CacheSweepInterval, stopChan)

	expertController := controllers.NewExpertController(db, svc.Answers, svc.Trigger, cfg.Server.GenerationTimeout)
	alertController := controllers.NewAlertController(svc.Guidance)
	adminController := controllers.NewAdminController(svc.Client, svc.Calls, svc.Cache)
	healthController := controllers.NewHealthController(db, svc.Client)

	r.GET("/health", healthController.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Server.JWTSecret))
	{
		questions := api.Group("/questions")
		{
			questions.GET("/:id", expertController.GetQuestion)
			questions.POST("/:id/ai-answer", expertController.TriggerAIAnswer)
			questions.POST("/:id/answers/:answerId/endorse",
				middleware.RequireRole(models.RoleExpert, models.RoleAdmin),
				expertController.EndorseAnswer)
		}

		alerts := api.Group("/alerts")
		{
			alerts.POST("/guidance", alertController.PostGuidance)
			alerts.GET("/:id/guidance", alertController.GetAlertGuidance)
		}

		api.GET("/ai/status", adminController.GetAIStatus)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/ai-calls", adminController.GetAICalls)
			admin.DELETE("/ai-calls", adminController.ClearAICalls)
			admin.POST("/cache/sweep", adminController.SweepCache)
		}
	}
}
