package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/db"
	"github.com/pawpack/backend/internal/services"
	"gorm.io/gorm"
)

const version = "1.0.0"

type HealthController struct {
	db     *gorm.DB
	client *services.GenerationClient
}

func NewHealthController(conn *gorm.DB, client *services.GenerationClient) *HealthController {
	return &HealthController{db: conn, client: client}
}

// Health reports database connectivity and whether generation is configured.
// An unconfigured generator is not a failure: the pipeline degrades to fallbacks.
func (hc *HealthController) Health(c *gin.Context) {
	dbStatus := gin.H{"status": "ok"}
	overallStatus := "ok"
	statusCode := http.StatusOK

	if err := db.Ping(hc.db); err != nil {
		dbStatus = gin.H{"status": "error", "error": err.Error()}
		overallStatus = "error"
		statusCode = http.StatusServiceUnavailable
	}

	aiStatus := "not_configured"
	if hc.client != nil && hc.client.Configured() {
		aiStatus = "configured"
	}

	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
		"services": gin.H{
			"database": dbStatus,
			"ai":       gin.H{"status": aiStatus},
		},
	})
}
