package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/middleware"
	"github.com/pawpack/backend/internal/models"
	"github.com/pawpack/backend/internal/services"
	"gorm.io/gorm"
)

type ExpertController struct {
	db                *gorm.DB
	answers           *services.AIAnswerService
	trigger           *services.AnswerTrigger
	generationTimeout time.Duration
}

func NewExpertController(db *gorm.DB, answers *services.AIAnswerService, trigger *services.AnswerTrigger, generationTimeout time.Duration) *ExpertController {
	if generationTimeout <= 0 {
		generationTimeout = 5 * time.Minute
	}
	return &ExpertController{
		db:                db,
		answers:           answers,
		trigger:           trigger,
		generationTimeout: generationTimeout,
	}
}

// TriggerAIAnswer produces the question's AI answer if it has none yet
func (ec *ExpertController) TriggerAIAnswer(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	// A client that disconnects must not abort a generation or an open transaction.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), ec.generationTimeout)
	defer cancel()

	result, err := ec.trigger.Trigger(ctx, questionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuestionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		case errors.Is(err, services.ErrQuestionClosed):
			c.JSON(http.StatusForbidden, gin.H{"error": "Question is closed"})
		default:
			logger.WithError(err, "expert_controller").WithField("question_id", questionID).Error("AI answer trigger failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process AI answer"})
		}
		return
	}

	switch result.Outcome {
	case services.OutcomeGenerated:
		c.JSON(http.StatusCreated, gin.H{"status": result.Outcome, "answer": result.Answer})
	case services.OutcomeUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  result.Outcome,
			"message": "AI answer is temporarily unavailable, please try again later",
		})
	default:
		c.JSON(http.StatusOK, gin.H{"status": result.Outcome, "answer": result.Answer})
	}
}

// GetQuestion returns a question with its dogs and answers
func (ec *ExpertController) GetQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	question, err := ec.answers.GetQuestion(c.Request.Context(), questionID)
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": question})
}

// EndorseAnswer lets an expert vouch for an AI answer
func (ec *ExpertController) EndorseAnswer(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	answerID, ok := parseID(c, "answerId")
	if !ok {
		return
	}

	userID, exists := middleware.CurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var endorser models.User
	if err := ec.db.WithContext(c.Request.Context()).First(&endorser, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	answer, err := ec.answers.EndorseAIAnswer(c.Request.Context(), questionID, answerID, endorser)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotEndorser):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only experts can endorse answers"})
		case errors.Is(err, services.ErrAnswerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		case errors.Is(err, services.ErrNotAIAnswer):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only AI answers can be endorsed"})
		default:
			logger.WithError(err, "expert_controller").Error("Failed to endorse answer")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to endorse answer"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer endorsed", "answer": answer})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}
