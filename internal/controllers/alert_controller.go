package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/models"
	"github.com/pawpack/backend/internal/services"
)

type AlertController struct {
	guidance *services.GuidanceService
}

func NewAlertController(guidance *services.GuidanceService) *AlertController {
	return &AlertController{guidance: guidance}
}

type GuidanceRequest struct {
	Title      string `json:"title" binding:"required"`
	Message    string `json:"message"`
	HazardType string `json:"hazardType" binding:"required"`
	Severity   string `json:"severity"`
	Region     string `json:"region"`
}

// PostGuidance returns guidance for alert details that may not be stored yet
func (ac *AlertController) PostGuidance(c *gin.Context) {
	var req GuidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	severity := models.AlertSeverity(req.Severity)
	if severity == "" {
		severity = models.AlertSeverityMedium
	}

	alert := models.SafetyAlert{
		Title:      req.Title,
		Message:    req.Message,
		HazardType: models.HazardType(req.HazardType),
		Severity:   severity,
		Region:     req.Region,
	}

	c.JSON(http.StatusOK, ac.guidance.GetGuidance(c.Request.Context(), alert))
}

// GetAlertGuidance returns guidance for a stored alert
func (ac *AlertController) GetAlertGuidance(c *gin.Context) {
	alertID, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := ac.guidance.GetGuidanceForAlert(c.Request.Context(), alertID)
	if err != nil {
		if errors.Is(err, services.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load alert"})
		return
	}

	c.JSON(http.StatusOK, result)
}
