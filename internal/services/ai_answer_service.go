package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const answerMaxOutputTokens = 1024

// errLostRace marks an insert rejected by the one-AI-answer-per-question index.
var errLostRace = errors.New("ai answer already inserted by another writer")

// AIAnswerService persists at most one machine-generated answer per question.
type AIAnswerService struct {
	db        *gorm.DB
	generator TextGenerator

	now func() time.Time
}

func NewAIAnswerService(db *gorm.DB, generator TextGenerator) *AIAnswerService {
	return &AIAnswerService{
		db:        db,
		generator: generator,
		now:       time.Now,
	}
}

// LoadQuestion returns the question without associations.
func (s *AIAnswerService) LoadQuestion(ctx context.Context, questionID uint) (*models.ExpertQuestion, error) {
	var question models.ExpertQuestion
	if err := s.db.WithContext(ctx).First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	return &question, nil
}

// GetQuestion returns the question with its dogs and answers, oldest answer first.
func (s *AIAnswerService) GetQuestion(ctx context.Context, questionID uint) (*models.ExpertQuestion, error) {
	var question models.ExpertQuestion
	err := s.db.WithContext(ctx).
		Preload("Dogs").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Answers.Author").
		First(&question, questionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	return &question, nil
}

// FindAIAnswer returns the persisted machine-generated answer, or nil when none exists.
func (s *AIAnswerService) FindAIAnswer(ctx context.Context, questionID uint) (*models.ExpertAnswer, error) {
	return findAIAnswer(s.db.WithContext(ctx), questionID)
}

// CountHumanAnswers counts answers written by people.
func (s *AIAnswerService) CountHumanAnswers(ctx context.Context, questionID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ExpertAnswer{}).
		Where("question_id = ? AND is_ai_generated = ?", questionID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

// EnsureAIAnswer returns the question's machine-generated answer, generating and
// persisting it when absent. created is true only for the caller whose insert won.
// The generation call happens outside any transaction; the insert rechecks under a
// row lock, so concurrent callers all end up with the same persisted answer.
func (s *AIAnswerService) EnsureAIAnswer(ctx context.Context, questionID uint) (answer *models.ExpertAnswer, created bool, err error) {
	ctx, span := tracer.Start(ctx, "AIAnswerService.EnsureAIAnswer")
	defer span.End()
	span.SetAttributes(attribute.Int("question.id", int(questionID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Bool("answer.created", created))
	}()

	log := logger.WithGeneration("question", questionID)

	question, err := s.LoadQuestion(ctx, questionID)
	if err != nil {
		return nil, false, err
	}
	if existing, err := s.FindAIAnswer(ctx, questionID); err != nil || existing != nil {
		return existing, false, err
	}

	if question.IsClosed() {
		return nil, false, ErrQuestionClosed
	}

	var principal *models.User
	var existing *models.ExpertAnswer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findAIAnswer(tx, questionID)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return nil
		}
		principal, err = ensureAIPrincipal(tx)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	dogs, err := s.loadQuestionDogs(ctx, question)
	if err != nil {
		return nil, false, err
	}

	raw, err := s.generator.Generate(ctx, GenerationRequest{
		CallType:        CallTypeExpertAnswer,
		Prompt:          BuildAnswerPrompt(*question, dogs, s.now()),
		MaxOutputTokens: answerMaxOutputTokens,
		Temperature:     0.7,
	})
	if err != nil {
		log.WithField("error", err.Error()).Warn("AI answer generation unavailable")
		return nil, false, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	body, err := ValidateAnswerText(raw)
	if err != nil {
		log.WithField("error", err.Error()).Warn("AI answer rejected by validation")
		return nil, false, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.ExpertQuestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to lock question: %w", err)
		}
		found, err := findAIAnswer(tx, questionID)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return nil
		}

		if locked.IsClosed() {
			return ErrQuestionClosed
		}

		slot := questionID
		answer = &models.ExpertAnswer{
			QuestionID:    questionID,
			AuthorID:      principal.ID,
			Body:          body,
			IsAIGenerated: true,
			AISlot:        &slot,
		}
		if err := tx.Create(answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errLostRace
			}
			return fmt.Errorf("failed to create ai answer: %w", err)
		}

		if locked.Status == models.QuestionOpen {
			if err := tx.Model(&locked).Update("status", models.QuestionAnswered).Error; err != nil {
				return fmt.Errorf("failed to update question status: %w", err)
			}
		}
		return nil
	})

	switch {
	case errors.Is(err, errLostRace):
		log.Info("AI answer inserted concurrently, discarding generated text")
		winner, err := s.FindAIAnswer(ctx, questionID)
		if err != nil {
			return nil, false, err
		}
		if winner == nil {
			return nil, false, fmt.Errorf("ai answer for question %d vanished after conflict", questionID)
		}
		return winner, false, nil
	case err != nil:
		return nil, false, err
	case existing != nil:
		log.Info("AI answer already present, discarding generated text")
		return existing, false, nil
	}

	answer.Author = principal
	log.WithField("answer_id", answer.ID).Info("AI answer persisted")
	return answer, true, nil
}

// EndorseAIAnswer records an expert's endorsement of a machine-generated answer.
// Re-endorsing keeps the first endorsement.
func (s *AIAnswerService) EndorseAIAnswer(ctx context.Context, questionID, answerID uint, endorser models.User) (*models.ExpertAnswer, error) {
	if !endorser.CanEndorse() {
		return nil, ErrNotEndorser
	}

	var answer models.ExpertAnswer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND question_id = ?", answerID, questionID).
			First(&answer).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAnswerNotFound
			}
			return fmt.Errorf("failed to load answer: %w", err)
		}
		if !answer.IsAIGenerated {
			return ErrNotAIAnswer
		}
		if answer.EndorsedByID != nil {
			return nil
		}

		now := s.now()
		answer.EndorsedByID = &endorser.ID
		answer.EndorsedAt = &now
		return tx.Model(&answer).Updates(map[string]interface{}{
			"endorsed_by_id": endorser.ID,
			"endorsed_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.WithGeneration("question", questionID).WithFields(map[string]interface{}{
		"answer_id":   answer.ID,
		"endorser_id": endorser.ID,
	}).Info("AI answer endorsed")
	return &answer, nil
}

// loadQuestionDogs loads the referenced dogs, each with its newest health records.
func (s *AIAnswerService) loadQuestionDogs(ctx context.Context, question *models.ExpertQuestion) ([]models.Dog, error) {
	db := s.db.WithContext(ctx)

	var dogs []models.Dog
	err := db.Joins("JOIN question_dogs ON question_dogs.dog_id = dogs.id").
		Where("question_dogs.expert_question_id = ?", question.ID).
		Order("dogs.id ASC").
		Find(&dogs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load question dogs: %w", err)
	}

	for i := range dogs {
		err := db.Where("dog_id = ?", dogs[i].ID).
			Order("record_date DESC, id DESC").
			Limit(maxPromptHealthRecords).
			Find(&dogs[i].HealthRecords).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load health records for dog %d: %w", dogs[i].ID, err)
		}
	}
	return dogs, nil
}

func findAIAnswer(db *gorm.DB, questionID uint) (*models.ExpertAnswer, error) {
	var answer models.ExpertAnswer
	err := db.Preload("Author").
		Where("question_id = ? AND is_ai_generated = ?", questionID, true).
		Order("id ASC").
		First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up ai answer: %w", err)
	}
	return &answer, nil
}

// ensureAIPrincipal returns the AI assistant user, creating it on first use.
func ensureAIPrincipal(tx *gorm.DB) (*models.User, error) {
	var principal models.User
	err := tx.Where("username = ?", models.AIAssistantUsername).First(&principal).Error
	if err == nil {
		return &principal, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up ai principal: %w", err)
	}

	// The principal never logs in; its password is a hash of a discarded random secret.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash ai principal secret: %w", err)
	}

	principal = models.User{
		Username:    models.AIAssistantUsername,
		Email:       "ai-assistant@pawpack.local",
		Password:    string(hash),
		DisplayName: "PawPack AI Assistant",
		Role:        models.RoleSystem,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&principal).Error; err != nil {
		return nil, fmt.Errorf("failed to create ai principal: %w", err)
	}

	var stored models.User
	if err := tx.Where("username = ?", models.AIAssistantUsername).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to reload ai principal: %w", err)
	}
	return &stored, nil
}
