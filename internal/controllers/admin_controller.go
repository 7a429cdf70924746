package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/services"
)

type AdminController struct {
	client *services.GenerationClient
	calls  *services.CallLog
	cache  services.ContentCache[[]string]
}

func NewAdminController(client *services.GenerationClient, calls *services.CallLog, cache services.ContentCache[[]string]) *AdminController {
	return &AdminController{client: client, calls: calls, cache: cache}
}

// GetAICalls returns the recent generation calls, newest first
func (ac *AdminController) GetAICalls(c *gin.Context) {
	calls := ac.calls.List()
	for i, j := 0, len(calls)-1; i < j; i, j = i+1, j-1 {
		calls[i], calls[j] = calls[j], calls[i]
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls, "total": len(calls)})
}

// ClearAICalls empties the call log
func (ac *AdminController) ClearAICalls(c *gin.Context) {
	ac.calls.Clear()
	logger.Info("Generation call log cleared", nil)
	c.JSON(http.StatusOK, gin.H{"message": "AI call log cleared"})
}

// SweepCache drops expired guidance entries
func (ac *AdminController) SweepCache(c *gin.Context) {
	removed := ac.cache.SweepExpired()
	c.JSON(http.StatusOK, gin.H{"removed": removed, "remaining": ac.cache.Len()})
}

// GetAIStatus reports generation configuration and activity
func (ac *AdminController) GetAIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured":  ac.client.Configured(),
		"model":       ac.client.Model(),
		"cacheSize":   ac.cache.Len(),
		"recentCalls": ac.calls.Len(),
	})
}
