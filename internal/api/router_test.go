package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/api/controllers"
	"khaja/internal/clock"
	"khaja/internal/config"
	"khaja/internal/entitlement"
	"khaja/internal/metrics"
	"khaja/internal/models/db_models"
	"khaja/internal/repositories"
	"khaja/internal/services"
	"khaja/internal/testutil"
	mem "khaja/pkg/memcache"
	"khaja/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	TraceID string          `json:"trace_id"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	jwt    *utils.JWTManager
	resets *mem.ResetTokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	log := zap.NewNop()
	catalog := entitlement.DefaultCatalog()
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	require.NoError(t, err)
	jwtManager, err := utils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	accountRepo := repositories.NewAccountRepository(db)
	subRepo := repositories.NewSubscriptionRepository(db)
	proRepo := repositories.NewProfessionalRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	quoteRepo := repositories.NewQuoteRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	disputeRepo := repositories.NewDisputeRepository(db)
	settings := services.UsageSettings{MaxRetries: 3, LockTTL: time.Second}
	locks := mem.NewKeyedLocks()
	mail := services.NewLogMailService(log)
	resets := mem.NewResetTokens(nil)

	usage := services.NewUsageService(db, subRepo, entitlement.NewEngine(catalog, clock.Real{}), locks, m, log, settings)
	professionals := services.NewProfessionalService(proRepo, reviewRepo, catalog, log)
	disputes := services.NewDisputeService(db, disputeRepo, projectRepo, proRepo, accountRepo, mail, log)

	h := Handlers{
		Account: controllers.NewAccountController(services.NewAccountService(db, accountRepo, proRepo, subRepo, resets, mail, jwtManager, log)),
		Plan:    controllers.NewPlanController(services.NewPlanService(catalog)),
		Subscription: controllers.NewSubscriptionController(
			services.NewSubscriptionService(subRepo, catalog, locks, clock.Real{}, log, settings), usage),
		Quote: controllers.NewQuoteController(
			services.NewQuoteService(db, quoteRepo, projectRepo, proRepo, subRepo, accountRepo, professionals, mail, catalog, m, log)),
		Project: controllers.NewProjectController(
			services.NewProjectService(db, projectRepo, quoteRepo, proRepo, reviewRepo, subRepo, usage, catalog, log), disputes),
		Professional: controllers.NewProfessionalController(professionals),
		Dispute:      controllers.NewDisputeController(disputes),
		Dashboard: controllers.NewDashboardController(
			services.NewDashboardService(repositories.NewDashboardRepository(db), catalog), services.NewExportService(subRepo, log)),
	}

	var cfg config.Config
	cfg.Metrics.Enabled = true
	return &testServer{
		t:      t,
		engine: NewRouter(cfg, h, jwtManager, registry, log),
		db:     db,
		jwt:    jwtManager,
		resets: resets,
	}
}

// do sends body as JSON; token may be empty.
func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) tokenFor(acc db_models.Account) string {
	s.t.Helper()
	token, err := s.jwt.CreateToken(acc.ID, string(acc.Role))
	require.NoError(s.t, err)
	return token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPost, "/accounts/register", "", map[string]string{
		"display_name": "Amina",
		"email":        "Amina@Example.com",
		"password":     "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/accounts/register", "", map[string]string{
		"display_name": "Amina bis",
		"email":        "amina@example.com",
		"password":     "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/accounts/login", "", map[string]string{"email": "amina@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPost, "/accounts/login", "", map[string]string{"email": "amina@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}](t, env)
	assert.Equal(t, "client", login.Role)

	w, env = s.do(http.MethodGet, "/accounts/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Email string `json:"email"`
	}](t, env)
	assert.Equal(t, "amina@example.com", me.Email)
	assert.NotEmpty(t, env.TraceID)
}

func TestRouter_PasswordReset(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodPost, "/accounts/register", "", map[string]string{
		"display_name": "Amina",
		"email":        "amina@example.com",
		"password":     "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/accounts/forgot-password", "", map[string]string{"email": "amina@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/accounts/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/accounts/forgot-password", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, s.resets.Set(context.Background(), "tok-1", "amina@example.com", time.Minute))

	w, _ = s.do(http.MethodPost, "/accounts/verify-otp", "", map[string]string{"email": "amina@example.com", "token": "tok-2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPost, "/accounts/verify-otp", "", map[string]string{"email": "amina@example.com", "token": "tok-1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/accounts/reset-password", "", map[string]string{
		"email": "amina@example.com", "token": "tok-1", "new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/accounts/reset-password", "", map[string]string{
		"email": "amina@example.com", "token": "tok-1", "new_password": "brand-new-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/accounts/login", "", map[string]string{"email": "amina@example.com", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminAccounts(t *testing.T) {
	s := newTestServer(t)
	client := testutil.SeedAccount(t, s.db, db_models.RoleClient)
	testutil.SeedAccount(t, s.db, db_models.RoleProfessional)
	admin := s.tokenFor(testutil.SeedAccount(t, s.db, db_models.RoleAdmin))

	w, _ := s.do(http.MethodGet, "/admin/accounts", s.tokenFor(client), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodGet, "/admin/accounts?role=client", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Items []struct {
			ID uuid.UUID `json:"id"`
		} `json:"items"`
		Total int64 `json:"total"`
	}](t, env)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, client.ID, page.Items[0].ID)

	w, _ = s.do(http.MethodGet, "/admin/accounts?role=root", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AuthAndValidation(t *testing.T) {
	s := newTestServer(t)
	client := testutil.SeedAccount(t, s.db, db_models.RoleClient)

	w, _ := s.do(http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/subscriptions/not-a-uuid", s.tokenFor(client), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/admin/dashboard", s.tokenFor(client), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPut, "/professionals/me/rates", s.tokenFor(client), map[string]interface{}{"hourly_rate": 30})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodGet, "/plans", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, env), 4)

	w, _ = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SubscriptionUsage(t *testing.T) {
	s := newTestServer(t)
	client := testutil.SeedAccount(t, s.db, db_models.RoleClient)
	token := s.tokenFor(client)

	w, env := s.do(http.MethodPost, "/subscriptions", token, map[string]string{"plan_id": "forfait1"})
	require.Equal(t, http.StatusCreated, w.Code)
	sub := decode[struct {
		ID       uuid.UUID `json:"id"`
		MaxTasks int       `json:"max_tasks"`
	}](t, env)
	assert.Equal(t, 4, sub.MaxTasks)

	w, env = s.do(http.MethodPost, "/subscriptions/usage", token, map[string]interface{}{
		"subscription_id": sub.ID, "service_id": "cleaning", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	consumed := decode[struct {
		Success        bool `json:"success"`
		RemainingTasks int  `json:"remaining_tasks"`
	}](t, env)
	assert.True(t, consumed.Success)
	assert.Equal(t, 3, consumed.RemainingTasks)

	w, env = s.do(http.MethodPost, "/subscriptions/usage", token, map[string]interface{}{
		"subscription_id": sub.ID, "service_id": "tiling", "quantity": 1,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	denial := decode[struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}](t, env)
	assert.Equal(t, "entitlement_denied", denial.Error)
	assert.Equal(t, string(entitlement.ReasonNotCovered), denial.Reason)

	w, _ = s.do(http.MethodPost, "/subscriptions/usage", token, map[string]interface{}{
		"subscription_id": sub.ID, "service_id": "cleaning", "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/subscriptions/"+sub.ID.String()+"/usage", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[struct {
		Stats struct {
			RemainingTasks int `json:"remaining_tasks"`
		} `json:"stats"`
	}](t, env)
	assert.Equal(t, 3, usage.Stats.RemainingTasks)

	stranger := testutil.SeedAccount(t, s.db, db_models.RoleClient)
	w, _ = s.do(http.MethodGet, "/subscriptions/"+sub.ID.String()+"/usage", s.tokenFor(stranger), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/subscriptions/"+uuid.NewString()+"/usage", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "khaja_entitlement_decisions_total")
}

func TestRouter_AutomaticQuotes(t *testing.T) {
	s := newTestServer(t)
	token := s.tokenFor(testutil.SeedAccount(t, s.db, db_models.RoleClient))

	w, _ := s.do(http.MethodPost, "/quotes/automatic", token, map[string]interface{}{"work_type": "tiling"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/quotes/automatic", token, map[string]interface{}{"work_type": "tiling", "surface_area": 30})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/quotes/automatic", token, map[string]interface{}{"work_type": "tiling", "surface_area": 1e20})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/projects", token, map[string]interface{}{"work_type": "tiling", "surface_area": 1e20})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	testutil.SeedProfessional(t, s.db, true, 42, map[string]float64{"tiling": 35})
	w, env := s.do(http.MethodPost, "/quotes/automatic", token, map[string]interface{}{"work_type": "tiling", "surface_area": 30})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[struct {
		Quotes []struct {
			Price float64 `json:"price"`
		} `json:"quotes"`
	}](t, env)
	require.Len(t, result.Quotes, 1)
	assert.Equal(t, 1176.00, result.Quotes[0].Price)
}

func TestRouter_AdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.tokenFor(testutil.SeedAccount(t, s.db, db_models.RoleAdmin))
	client := testutil.SeedAccount(t, s.db, db_models.RoleClient)

	w, _ := s.do(http.MethodPost, "/subscriptions", s.tokenFor(client), map[string]string{"plan_id": "forfait2"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(http.MethodGet, "/admin/dashboard?last_days=7", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[struct {
		KPIs struct {
			ActiveSubscriptions int64   `json:"active_subscriptions"`
			MRR                 float64 `json:"mrr"`
		} `json:"kpis"`
	}](t, env)
	assert.Equal(t, int64(1), report.KPIs.ActiveSubscriptions)
	assert.InDelta(t, 49.90, report.KPIs.MRR, 0.001)

	w, _ = s.do(http.MethodGet, "/admin/dashboard?last_days=7&start=2025-01-01T00:00:00Z", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/admin/transactions/export?last_days=7", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())

	w, env = s.do(http.MethodGet, "/admin/subscriptions?status=active", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, env.Data)

	w, _ = s.do(http.MethodGet, "/admin/disputes?status=pending", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
