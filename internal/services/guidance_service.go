package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	GuidanceSourceAI       = "ai"
	GuidanceSourceCache    = "cache"
	GuidanceSourceFallback = "fallback"

	guidanceMaxOutputTokens = 512
	fingerprintTitleRunes   = 50

	defaultGuidanceTimeout = 5 * time.Minute
)

type GuidanceResult struct {
	Items       []string  `json:"items"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// GuidanceService returns safety guidance for alerts. It never fails: when generation
// is unavailable the static fallback list for the hazard is served.
type GuidanceService struct {
	db        *gorm.DB
	generator TextGenerator
	cache     ContentCache[[]string]
	group     singleflight.Group
	timeout   time.Duration

	now func() time.Time
}

// NewGuidanceService builds the service. timeout bounds one shared generation;
// zero or less uses five minutes.
func NewGuidanceService(db *gorm.DB, generator TextGenerator, cache ContentCache[[]string], timeout time.Duration) *GuidanceService {
	if timeout <= 0 {
		timeout = defaultGuidanceTimeout
	}
	return &GuidanceService{
		db:        db,
		generator: generator,
		cache:     cache,
		timeout:   timeout,
		now:       time.Now,
	}
}

// GuidanceFingerprint builds the cache key for an alert.
func GuidanceFingerprint(alert models.SafetyAlert) string {
	title := []rune(strings.ToLower(strings.TrimSpace(alert.Title)))
	if len(title) > fingerprintTitleRunes {
		title = title[:fingerprintTitleRunes]
	}
	return fmt.Sprintf("guidance:%s:%s:%s", alert.HazardType, alert.Severity, string(title))
}

// GetGuidance serves cached guidance when fresh, otherwise generates, validates and
// caches a new list. Concurrent misses for the same fingerprint share one generation,
// which runs detached from the caller's cancellation and is bounded by the service timeout.
func (s *GuidanceService) GetGuidance(ctx context.Context, alert models.SafetyAlert) GuidanceResult {
	key := GuidanceFingerprint(alert)

	if entry, ok := s.cache.Get(key); ok {
		return GuidanceResult{Items: entry.Value, Source: GuidanceSourceCache, GeneratedAt: entry.GeneratedAt}
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		// another caller may have filled the entry while this one waited
		if entry, ok := s.cache.Get(key); ok {
			return GuidanceResult{Items: entry.Value, Source: GuidanceSourceCache, GeneratedAt: entry.GeneratedAt}, nil
		}

		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.generate(genCtx, key, alert), nil
	})
	return v.(GuidanceResult)
}

// GetGuidanceForAlert loads a stored alert and returns its guidance.
func (s *GuidanceService) GetGuidanceForAlert(ctx context.Context, alertID uint) (GuidanceResult, error) {
	var alert models.SafetyAlert
	if err := s.db.WithContext(ctx).First(&alert, alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GuidanceResult{}, ErrAlertNotFound
		}
		return GuidanceResult{}, fmt.Errorf("failed to load alert: %w", err)
	}
	return s.GetGuidance(ctx, alert), nil
}

func (s *GuidanceService) generate(ctx context.Context, key string, alert models.SafetyAlert) GuidanceResult {
	ctx, span := tracer.Start(ctx, "GuidanceService.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("alert.hazard_type", string(alert.HazardType)),
		attribute.String("alert.severity", string(alert.Severity)),
	)

	log := logger.WithGeneration("alert", alert.ID).WithField("fingerprint", key)

	raw, err := s.generator.Generate(ctx, GenerationRequest{
		CallType:        CallTypeSafetyGuidance,
		Prompt:          BuildGuidancePrompt(alert),
		MaxOutputTokens: guidanceMaxOutputTokens,
		Temperature:     0.7,
	})
	if err == nil {
		var items []string
		items, err = ParseGuidanceList(raw)
		if err == nil {
			s.cache.Put(key, items)
			log.WithField("items", len(items)).Info("Generated safety guidance")
			return GuidanceResult{Items: items, Source: GuidanceSourceAI, GeneratedAt: s.now()}
		}
	}

	span.RecordError(err)
	log.WithField("error", err.Error()).Warn("Serving fallback safety guidance")
	return GuidanceResult{
		Items:       FallbackGuidance(alert.HazardType),
		Source:      GuidanceSourceFallback,
		GeneratedAt: s.now(),
	}
}
