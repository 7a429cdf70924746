package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/models"
	"golang.org/x/sync/singleflight"
)

type TriggerOutcome string

const (
	OutcomeGenerated   TriggerOutcome = "generated"
	OutcomeExisting    TriggerOutcome = "existing"
	OutcomeNotEligible TriggerOutcome = "not_eligible"
	OutcomeUnavailable TriggerOutcome = "unavailable"
)

type TriggerResult struct {
	Outcome TriggerOutcome       `json:"outcome"`
	Answer  *models.ExpertAnswer `json:"answer,omitempty"`
}

// AnswerTrigger decides whether a question should get a machine-generated answer and
// produces it. It is safe to call any number of times for the same question.
type AnswerTrigger struct {
	answers *AIAnswerService
	group   singleflight.Group
}

func NewAnswerTrigger(answers *AIAnswerService) *AnswerTrigger {
	return &AnswerTrigger{answers: answers}
}

// Trigger returns ErrQuestionNotFound, or ErrQuestionClosed when a closed question has
// no AI answer yet. A question that already has one reports OutcomeExisting even if closed.
// Generation failures are reported as OutcomeUnavailable, not as errors.
// Duplicate triggers in this process share one in-flight evaluation.
func (t *AnswerTrigger) Trigger(ctx context.Context, questionID uint) (*TriggerResult, error) {
	leader := false
	v, err, _ := t.group.Do(strconv.FormatUint(uint64(questionID), 10), func() (interface{}, error) {
		leader = true
		return t.trigger(ctx, questionID)
	})
	if err != nil {
		return nil, err
	}

	result := *v.(*TriggerResult)
	if !leader && result.Outcome == OutcomeGenerated {
		// the answer was created by the caller that ran the shared evaluation
		result.Outcome = OutcomeExisting
		logger.WithGeneration("question", questionID).Debug("Trigger joined an in-flight generation")
	}
	return &result, nil
}

func (t *AnswerTrigger) trigger(ctx context.Context, questionID uint) (*TriggerResult, error) {
	question, err := t.answers.LoadQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	existing, err := t.answers.FindAIAnswer(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &TriggerResult{Outcome: OutcomeExisting, Answer: existing}, nil
	}

	if question.IsClosed() {
		return nil, ErrQuestionClosed
	}

	humans, err := t.answers.CountHumanAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if humans > 0 {
		return &TriggerResult{Outcome: OutcomeNotEligible}, nil
	}

	answer, created, err := t.answers.EnsureAIAnswer(ctx, questionID)
	switch {
	case errors.Is(err, ErrGenerationUnavailable):
		return &TriggerResult{Outcome: OutcomeUnavailable}, nil
	case err != nil:
		return nil, err
	case created:
		return &TriggerResult{Outcome: OutcomeGenerated, Answer: answer}, nil
	default:
		return &TriggerResult{Outcome: OutcomeExisting, Answer: answer}, nil
	}
}
