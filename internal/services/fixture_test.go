package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/clock"
	"khaja/internal/entitlement"
	"khaja/internal/metrics"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/repositories"
	"khaja/internal/testutil"
	mem "khaja/pkg/memcache"
	"khaja/pkg/utils"
)

type sentMail struct {
	To      string
	Subject string
	Token   string
}

type recordingMail struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMail) SendMailToNotifyUser(_ context.Context, to, subject, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return nil
}

func (m *recordingMail) SendMailToResetPassword(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: "reset", Token: token})
	return nil
}

// resetToken returns the last reset token mailed to to.
func (m *recordingMail) resetToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to && m.sent[i].Token != "" {
			return m.sent[i].Token
		}
	}
	return ""
}

func (m *recordingMail) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.To)
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	clock   *clock.FakeClock
	catalog *entitlement.Catalog
	mail    *recordingMail

	resetTokens *mem.ResetTokens

	subRepo     repositories.SubscriptionRepository
	accountRepo repositories.AccountRepository
	proRepo     repositories.ProfessionalRepository
	projectRepo repositories.ProjectRepository
	quoteRepo   repositories.QuoteRepository

	accounts      AccountServiceInterface
	usage         UsageServiceInterface
	subscriptions SubscriptionServiceInterface
	professionals ProfessionalServiceInterface
	quotes        QuoteServiceInterface
	projects      ProjectServiceInterface
	disputes      DisputeServiceInterface
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSubRepo(t, nil)
}

// newFixtureWithSubRepo lets a test wrap the subscription repository used by the usage
// service.
func newFixtureWithSubRepo(t *testing.T, wrap func(repositories.SubscriptionRepository) repositories.SubscriptionRepository) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := zap.NewNop()
	clk := clock.NewFakeClock(testutil.Epoch)
	catalog := entitlement.DefaultCatalog()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	jwtManager, err := utils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		db:          db,
		clock:       clk,
		catalog:     catalog,
		mail:        &recordingMail{},
		subRepo:     repositories.NewSubscriptionRepository(db),
		accountRepo: repositories.NewAccountRepository(db),
		proRepo:     repositories.NewProfessionalRepository(db),
		projectRepo: repositories.NewProjectRepository(db),
		quoteRepo:   repositories.NewQuoteRepository(db),
	}
	reviewRepo := repositories.NewReviewRepository(db)
	disputeRepo := repositories.NewDisputeRepository(db)

	usageRepo := f.subRepo
	if wrap != nil {
		usageRepo = wrap(f.subRepo)
	}
	settings := UsageSettings{MaxRetries: 3, LockTTL: time.Second}
	locks := mem.NewKeyedLocks()

	f.resetTokens = mem.NewResetTokens(clk.Now)
	f.accounts = NewAccountService(db, f.accountRepo, f.proRepo, f.subRepo, f.resetTokens, f.mail, jwtManager, log)
	f.usage = NewUsageService(db, usageRepo, entitlement.NewEngine(catalog, clk), locks, m, log, settings)
	f.subscriptions = NewSubscriptionService(f.subRepo, catalog, locks, clk, log, settings)
	f.professionals = NewProfessionalService(f.proRepo, reviewRepo, catalog, log)
	f.quotes = NewQuoteService(db, f.quoteRepo, f.projectRepo, f.proRepo, f.subRepo, f.accountRepo, f.professionals, f.mail, catalog, m, log)
	f.projects = NewProjectService(db, f.projectRepo, f.quoteRepo, f.proRepo, reviewRepo, f.subRepo, f.usage, catalog, log)
	f.disputes = NewDisputeService(db, disputeRepo, f.projectRepo, f.proRepo, f.accountRepo, f.mail, log)
	return f
}

func actorOf(acc db_models.Account) request_models.Actor {
	return request_models.Actor{ID: acc.ID, Role: acc.Role}
}

func (f *fixture) client(t *testing.T) request_models.Actor {
	t.Helper()
	return actorOf(testutil.SeedAccount(t, f.db, db_models.RoleClient))
}

func (f *fixture) admin(t *testing.T) request_models.Actor {
	t.Helper()
	return actorOf(testutil.SeedAccount(t, f.db, db_models.RoleAdmin))
}

// professional seeds a verified professional and returns it with its acting identity.
func (f *fixture) professional(t *testing.T, hourly float64, rates map[string]float64) (db_models.Professional, request_models.Actor) {
	t.Helper()
	pro := testutil.SeedProfessional(t, f.db, true, hourly, rates)
	return pro, request_models.Actor{ID: pro.AccountID, Role: db_models.RoleProfessional}
}

func (f *fixture) reloadSubscription(t *testing.T, id uuid.UUID) *db_models.Subscription {
	t.Helper()
	var sub db_models.Subscription
	require.NoError(t, f.db.First(&sub, "id = ?", id).Error)
	return &sub
}
