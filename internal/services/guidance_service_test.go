package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pawpack/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert() models.SafetyAlert {
	return models.SafetyAlert{
		ID:         7,
		Title:      "Blue-green algae at Mill Lake",
		Message:    "Thick green scum along the north shore.",
		HazardType: models.HazardAlgaeBloom,
		Severity:   models.AlertSeverityHigh,
		Region:     "Mill Lake",
	}
}

func newTestGuidanceService(gen TextGenerator) (*GuidanceService, *MemoryCache[[]string], *fakeClock) {
	clock := newFakeClock()
	cache := newTestCache(clock)
	svc := NewGuidanceService(nil, gen, cache, time.Minute)
	svc.now = clock.Now
	return svc, cache, clock
}

func TestFallbackGuidanceCoversEveryHazard(t *testing.T) {
	for _, hazard := range models.KnownHazardTypes {
		items := FallbackGuidance(hazard)
		assert.NotEmpty(t, items, "hazard %s", hazard)
		assert.NotEqual(t, defaultFallbackGuidance, items, "hazard %s has its own list", hazard)
		for _, item := range items {
			assert.NotEmpty(t, strings.TrimSpace(item))
		}
	}

	assert.Equal(t, defaultFallbackGuidance, FallbackGuidance("meteor_strike"))
	assert.Equal(t, defaultFallbackGuidance, FallbackGuidance(""))
}

func TestFallbackGuidanceReturnsCopy(t *testing.T) {
	items := FallbackGuidance(models.HazardTraffic)
	items[0] = "changed"
	assert.NotEqual(t, "changed", FallbackGuidance(models.HazardTraffic)[0])
}

func TestGuidanceFingerprint(t *testing.T) {
	alert := testAlert()
	assert.Equal(t, "guidance:algae_bloom:high:blue-green algae at mill lake", GuidanceFingerprint(alert))

	alert.Title = strings.Repeat("Ä", 60)
	fp := GuidanceFingerprint(alert)
	assert.Equal(t, "guidance:algae_bloom:high:"+strings.Repeat("ä", 50), fp)

	other := testAlert()
	other.Message = "completely different message"
	assert.Equal(t, GuidanceFingerprint(testAlert()), GuidanceFingerprint(other), "message is not part of the key")
}

func TestGetGuidanceGeneratesThenCaches(t *testing.T) {
	gen := &fakeGenerator{respond: func(int, GenerationRequest) (string, error) {
		return "```json\n[\"Keep dogs out of the water\", \"Rinse after contact\"]\n```", nil
	}}
	svc, cache, _ := newTestGuidanceService(gen)

	first := svc.GetGuidance(context.Background(), testAlert())
	assert.Equal(t, GuidanceSourceAI, first.Source)
	assert.Equal(t, []string{"Keep dogs out of the water", "Rinse after contact"}, first.Items)
	assert.Equal(t, 1, cache.Len())

	second := svc.GetGuidance(context.Background(), testAlert())
	assert.Equal(t, GuidanceSourceCache, second.Source)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, gen.Calls())
	assert.Contains(t, gen.LastPrompt(), "Hazard type: algae bloom")
}

func TestGetGuidanceRegeneratesAfterTTL(t *testing.T) {
	gen := &fakeGenerator{respond: func(call int, _ GenerationRequest) (string, error) {
		if call == 1 {
			return `["first"]`, nil
		}
		return `["second"]`, nil
	}}
	svc, _, clock := newTestGuidanceService(gen)

	assert.Equal(t, []string{"first"}, svc.GetGuidance(context.Background(), testAlert()).Items)
	clock.Advance(24*time.Hour + time.Second)

	result := svc.GetGuidance(context.Background(), testAlert())
	assert.Equal(t, GuidanceSourceAI, result.Source)
	assert.Equal(t, []string{"second"}, result.Items)
	assert.Equal(t, 2, gen.Calls())
}

func TestGetGuidanceFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		respond func(int, GenerationRequest) (string, error)
	}{
		{"generation unavailable", func(int, GenerationRequest) (string, error) {
			return "", &GenerationError{StatusCode: 429, Message: "rate limited", Retryable: true}
		}},
		{"mixed element types", func(int, GenerationRequest) (string, error) {
			return `["ok", 5, "also ok"]`, nil
		}},
		{"prose response", func(int, GenerationRequest) (string, error) {
			return "Keep your dog away from the lake.", nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{respond: tt.respond}
			svc, cache, _ := newTestGuidanceService(gen)

			result := svc.GetGuidance(context.Background(), testAlert())
			assert.Equal(t, GuidanceSourceFallback, result.Source)
			assert.Equal(t, FallbackGuidance(models.HazardAlgaeBloom), result.Items)
			assert.Equal(t, 0, cache.Len(), "fallback guidance is not cached")

			svc.GetGuidance(context.Background(), testAlert())
			assert.Equal(t, 2, gen.Calls(), "the next request tries generation again")
		})
	}
}

func TestGetGuidanceCollapsesConcurrentMisses(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	gen := &fakeGenerator{respond: func(int, GenerationRequest) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return `["Stay on the path"]`, nil
	}}
	svc, _, _ := newTestGuidanceService(gen)

	const callers = 10
	results := make([]GuidanceResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.GetGuidance(context.Background(), testAlert())
		}(i)
	}

	<-entered
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, gen.Calls())
	for _, r := range results {
		assert.Equal(t, []string{"Stay on the path"}, r.Items)
	}
}

// generatorFunc adapts a function to TextGenerator.
type generatorFunc func(ctx context.Context, req GenerationRequest) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	return f(ctx, req)
}

func TestGetGuidanceSurvivesFirstCallerCancelling(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	gen := generatorFunc(func(ctx context.Context, _ GenerationRequest) (string, error) {
		close(entered)
		select {
		case <-ctx.Done():
			return "", &GenerationError{Message: "request aborted", Cause: ctx.Err()}
		case <-release:
			return `["Keep to shaded paths"]`, nil
		}
	})
	svc, cache, _ := newTestGuidanceService(gen)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	var first, second GuidanceResult
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		first = svc.GetGuidance(firstCtx, testAlert())
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		second = svc.GetGuidance(context.Background(), testAlert())
	}()

	cancelFirst()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, GuidanceSourceAI, first.Source)
	assert.NotEqual(t, GuidanceSourceFallback, second.Source)
	assert.Equal(t, []string{"Keep to shaded paths"}, second.Items)
	assert.Equal(t, 1, cache.Len())
}

func TestGetGuidanceBoundsSharedGeneration(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, _ GenerationRequest) (string, error) {
		<-ctx.Done()
		return "", &GenerationError{Message: "request aborted", Cause: ctx.Err()}
	})
	svc, cache, _ := newTestGuidanceService(gen)
	svc.timeout = 10 * time.Millisecond

	result := svc.GetGuidance(context.Background(), testAlert())

	assert.Equal(t, GuidanceSourceFallback, result.Source)
	assert.Equal(t, FallbackGuidance(models.HazardAlgaeBloom), result.Items)
	assert.Equal(t, 0, cache.Len())
}

func TestGetGuidanceForAlert(t *testing.T) {
	conn := newTestDB(t)
	reporter := createUser(t, conn, "reporter", models.RoleMember)

	alert := testAlert()
	alert.ID = 0
	alert.ReporterID = reporter.ID
	require.NoError(t, conn.Create(&alert).Error)

	gen := &fakeGenerator{respond: func(int, GenerationRequest) (string, error) {
		return "", errors.New("offline")
	}}
	svc := NewGuidanceService(conn, gen, NewMemoryCache[[]string](time.Hour), time.Minute)

	result, err := svc.GetGuidanceForAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, GuidanceSourceFallback, result.Source)
	assert.NotEmpty(t, result.Items)

	_, err = svc.GetGuidanceForAlert(context.Background(), alert.ID+100)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}
