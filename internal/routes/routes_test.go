package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/db"
	"github.com/pawpack/backend/internal/middleware"
	"github.com/pawpack/backend/internal/models"
	"github.com/pawpack/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "routes-test-secret"

func TestMain(m *testing.M) {
	os.Setenv("LOG_OUTPUT", "stdout")
	os.Setenv("LOG_LEVEL", "ERROR")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (g *stubGenerator) Generate(context.Context, services.GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.text, g.err
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	gen    *stubGenerator
	svc    *Services
	member models.User
	expert models.User
	admin  models.User
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "routes.db")), db.GormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))

	cfg := config.Load()
	cfg.Server.JWTSecret = testSecret
	cfg.Generation.APIKey = ""
	cfg.Generation.Model = "test-model"
	cfg.Generation.CacheSweepInterval = 0

	gen := &stubGenerator{text: "A preliminary answer."}
	calls := services.NewCallLog(0)
	client := services.NewGenerationClient(cfg.Generation, services.NewThrottle(0), calls)
	svc := newServicesWithGenerator(conn, cfg, calls, client, gen)

	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })

	r := gin.New()
	SetupRoutes(r, conn, cfg, svc, stop)

	app := &testApp{router: r, db: conn, gen: gen, svc: svc}
	app.member = app.createUser(t, "member", models.RoleMember)
	app.expert = app.createUser(t, "expert", models.RoleExpert)
	app.admin = app.createUser(t, "admin", models.RoleAdmin)
	return app
}

func (a *testApp) createUser(t *testing.T, name string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{Username: name, Email: name + "@example.com", Password: "x", DisplayName: name, Role: role}
	require.NoError(t, a.db.Create(&user).Error)
	return user
}

func (a *testApp) createQuestion(t *testing.T, status models.QuestionStatus) models.ExpertQuestion {
	t.Helper()
	q := models.ExpertQuestion{AuthorID: a.member.ID, Title: "Itchy paws", Body: "Licks paws all day", Status: status}
	require.NoError(t, a.db.Create(&q).Error)
	return q
}

func (a *testApp) do(t *testing.T, user models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user.ID != 0 {
		token, err := middleware.GenerateToken(user, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func questionPath(q models.ExpertQuestion, suffix string) string {
	return "/api/v1/questions/" + jsonID(q.ID) + suffix
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestTriggerAIAnswerEndpoint(t *testing.T) {
	app := newTestApp(t)
	q := app.createQuestion(t, models.QuestionOpen)

	w := app.do(t, app.member, http.MethodPost, questionPath(q, "/ai-answer"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "generated", body["status"])
	answer := body["answer"].(map[string]interface{})
	assert.Equal(t, "A preliminary answer.", answer["body"])
	assert.Equal(t, true, answer["isAIGenerated"])
	assert.Nil(t, answer["endorsedById"])

	w = app.do(t, app.member, http.MethodPost, questionPath(q, "/ai-answer"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "existing", decode(t, w)["status"])
	assert.Equal(t, 1, app.gen.calls)

	w = app.do(t, app.member, http.MethodGet, questionPath(q, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	question := decode(t, w)["question"].(map[string]interface{})
	assert.Equal(t, "ANSWERED", question["status"])
	assert.Len(t, question["answers"], 1)
}

func TestTriggerAIAnswerErrors(t *testing.T) {
	app := newTestApp(t)
	closed := app.createQuestion(t, models.QuestionClosed)

	w := app.do(t, app.member, http.MethodPost, questionPath(closed, "/ai-answer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, app.member, http.MethodPost, "/api/v1/questions/9999/ai-answer", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, app.member, http.MethodPost, "/api/v1/questions/abc/ai-answer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, models.User{}, http.MethodPost, questionPath(closed, "/ai-answer"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, 0, app.gen.calls)
}

func TestTriggerAIAnswerUnavailable(t *testing.T) {
	app := newTestApp(t)
	app.gen.err = errors.Join(services.ErrGenerationUnavailable, errors.New("HTTP 429"))
	q := app.createQuestion(t, models.QuestionOpen)

	w := app.do(t, app.member, http.MethodPost, questionPath(q, "/ai-answer"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decode(t, w)["status"])
}

func TestTriggerAIAnswerNotEligible(t *testing.T) {
	app := newTestApp(t)
	q := app.createQuestion(t, models.QuestionOpen)
	human := models.ExpertAnswer{QuestionID: q.ID, AuthorID: app.expert.ID, Body: "Try a cone."}
	require.NoError(t, app.db.Create(&human).Error)

	w := app.do(t, app.member, http.MethodPost, questionPath(q, "/ai-answer"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "not_eligible", decode(t, w)["status"])
	assert.Equal(t, 0, app.gen.calls)
}

func TestEndorseEndpoint(t *testing.T) {
	app := newTestApp(t)
	q := app.createQuestion(t, models.QuestionOpen)

	w := app.do(t, app.member, http.MethodPost, questionPath(q, "/ai-answer"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	answerID := uint(decode(t, w)["answer"].(map[string]interface{})["id"].(float64))
	endorsePath := questionPath(q, "/answers/"+jsonID(answerID)+"/endorse")

	w = app.do(t, app.member, http.MethodPost, endorsePath, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, app.expert, http.MethodPost, endorsePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	answer := decode(t, w)["answer"].(map[string]interface{})
	assert.Equal(t, float64(app.expert.ID), answer["endorsedById"])
	assert.NotNil(t, answer["endorsedAt"])
}

func TestGuidanceEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.gen.text = `["Keep your dog leashed", "Avoid the park"]`

	req := map[string]string{"title": "Bait in Elm Park", "hazardType": "toxic_bait", "severity": "high"}
	w := app.do(t, app.member, http.MethodPost, "/api/v1/alerts/guidance", req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, services.GuidanceSourceAI, body["source"])
	assert.Len(t, body["items"], 2)

	w = app.do(t, app.member, http.MethodPost, "/api/v1/alerts/guidance", req)
	assert.Equal(t, services.GuidanceSourceCache, decode(t, w)["source"])

	app.gen.err = services.ErrGenerationUnavailable
	alert := models.SafetyAlert{ReporterID: app.member.ID, Title: "Heatwave", Message: "35C", HazardType: models.HazardExtremeHeat, Severity: models.AlertSeverityMedium}
	require.NoError(t, app.db.Create(&alert).Error)

	w = app.do(t, app.member, http.MethodGet, "/api/v1/alerts/"+jsonID(alert.ID)+"/guidance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, services.GuidanceSourceFallback, body["source"])
	assert.NotEmpty(t, body["items"])

	w = app.do(t, app.member, http.MethodGet, "/api/v1/alerts/9999/guidance", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, app.member, http.MethodPost, "/api/v1/alerts/guidance", map[string]string{"title": "missing hazard"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.svc.Calls.Add(services.GenerationCall{ID: "call-1", CallType: services.CallTypeExpertAnswer})

	w := app.do(t, app.member, http.MethodGet, "/api/v1/admin/ai-calls", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, app.admin, http.MethodGet, "/api/v1/admin/ai-calls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = app.do(t, app.admin, http.MethodDelete, "/api/v1/admin/ai-calls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, app.svc.Calls.Len())

	w = app.do(t, app.admin, http.MethodPost, "/api/v1/admin/cache/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["removed"])

	w = app.do(t, app.member, http.MethodGet, "/api/v1/ai/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, false, status["configured"])
	assert.Equal(t, "test-model", status["model"])
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, models.User{}, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	deps := body["services"].(map[string]interface{})
	assert.Equal(t, "not_configured", deps["ai"].(map[string]interface{})["status"])
}
