package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/entitlement"
	"khaja/internal/metrics"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/quoting"
	"khaja/internal/repositories"
	"khaja/pkg/utils"
)

type QuoteServiceInterface interface {
	Automatic(ctx context.Context, req request_models.AutomaticQuoteRequest) (*response_models.AutomaticQuoteResponse, error)
	GenerateForProject(ctx context.Context, actor request_models.Actor, projectID uuid.UUID, req request_models.GenerateProjectQuotesRequest) (*response_models.ProjectResponse, error)
	SubmitManual(ctx context.Context, actor request_models.Actor, projectID uuid.UUID, req request_models.SubmitQuoteRequest) (*response_models.QuoteResponse, error)
	Counter(ctx context.Context, actor request_models.Actor, quoteID uuid.UUID, req request_models.CounterQuoteRequest) (*response_models.QuoteResponse, error)
	Accept(ctx context.Context, actor request_models.Actor, quoteID uuid.UUID) (*response_models.QuoteResponse, error)
	Reject(ctx context.Context, actor request_models.Actor, quoteID uuid.UUID) (*response_models.QuoteResponse, error)
	ListForProject(ctx context.Context, actor request_models.Actor, projectID uuid.UUID) ([]response_models.QuoteResponse, error)
}

type QuoteService struct {
	db          *gorm.DB
	quoteRepo   repositories.QuoteRepository
	projectRepo repositories.ProjectRepository
	proRepo     repositories.ProfessionalRepository
	proService  ProfessionalServiceInterface
	caps        planCapabilities
	notifier    accountNotifier
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewQuoteService(
	db *gorm.DB,
	quoteRepo repositories.QuoteRepository,
	projectRepo repositories.ProjectRepository,
	proRepo repositories.ProfessionalRepository,
	subRepo repositories.SubscriptionRepository,
	accountRepo repositories.AccountRepository,
	proService ProfessionalServiceInterface,
	mail IMailService,
	catalog *entitlement.Catalog,
	m *metrics.Metrics,
	log *zap.Logger,
) QuoteServiceInterface {
	log = log.Named("quote")
	return &QuoteService{
		db:          db,
		quoteRepo:   quoteRepo,
		projectRepo: projectRepo,
		proRepo:     proRepo,
		proService:  proService,
		caps:        planCapabilities{subRepo: subRepo, catalog: catalog},
		notifier:    accountNotifier{accounts: accountRepo, mail: mail, log: log},
		metrics:     m,
		log:         log,
	}
}

// Automatic prices the request against every verified rate card. An empty pool is reported
// as ErrNoProfessionalAvailable.
func (s *QuoteService) Automatic(ctx context.Context, req request_models.AutomaticQuoteRequest) (*response_models.AutomaticQuoteResponse, error) {
	quotes, err := s.compute(ctx, req.WorkType, req.SurfaceArea)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, utils.ErrNoProfessionalAvailable
	}
	return &response_models.AutomaticQuoteResponse{Quotes: quotes, Input: req}, nil
}

func (s *QuoteService) compute(ctx context.Context, workType string, area float64) ([]quoting.Quote, error) {
	if err := quoting.ValidateInput(workType, area); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidInput, err)
	}

	cards, err := s.proService.RateCards(ctx)
	if err != nil {
		return nil, err
	}

	quotes := quoting.ComputeQuotes(workType, area, cards)
	s.metrics.RecordQuoteRun(workType, len(quotes))
	s.log.Debug("automatic quotes computed",
		zap.String("work_type", workType),
		zap.Float64("surface_area", area),
		zap.Int("candidates", len(cards)),
		zap.Int("quotes", len(quotes)),
	)
	return quotes, nil
}

// GenerateForProject stores automatic quotes on the project. With auto_accept the cheapest
// one is accepted in the same transaction, which needs the auto_accept_quotes capability.
func (s *QuoteService) GenerateForProject(ctx context.Context, actor request_models.Actor, projectID uuid.UUID, req request_models.GenerateProjectQuotesRequest) (*response_models.ProjectResponse, error) {
	project, err := s.ownedProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !project.Status.OpenForQuotes() {
		return nil, utils.ErrInvalidTransition
	}
	if req.AutoAccept {
		if err := s.caps.requireAutoAccept(ctx, project); err != nil {
			return nil, err
		}
	}

	computed, err := s.compute(ctx, project.WorkType, project.SurfaceArea)
	if err != nil {
		return nil, err
	}
	if len(computed) == 0 {
		return nil, utils.ErrNoProfessionalAvailable
	}

	stored := make([]db_models.Quote, 0, len(computed))
	for _, q := range computed {
		stored = append(stored, db_models.Quote{
			ProjectID:             project.ID,
			ProfessionalID:        q.ProfessionalID,
			Source:                db_models.QuoteAuto,
			Status:                db_models.QuotePending,
			Price:                 q.Price,
			EstimatedHours:        q.EstimatedHours,
			EstimatedDurationDays: q.EstimatedDurationDays,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quotes := s.quoteRepo.WithTx(tx)
		projects := s.projectRepo.WithTx(tx)

		if err := quotes.CreateBatch(ctx, stored); err != nil {
			return dbErr(err)
		}
		if err := markQuoted(ctx, projects, project); err != nil {
			return err
		}
		if req.AutoAccept {
			// stored is in price order, cheapest first
			return acceptQuote(ctx, quotes, projects, &stored[0], project, db_models.QuotePending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("project quotes generated",
		zap.String("project_id", project.ID.String()),
		zap.Int("quotes", len(stored)),
		zap.Bool("auto_accepted", req.AutoAccept),
	)
	if req.AutoAccept {
		s.notifyAccepted(ctx, &stored[0], project, db_models.QuotePending)
	}

	resp := toProjectResponse(project)
	for i := range stored {
		resp.Quotes = append(resp.Quotes, toQuoteResponse(&stored[i]))
	}
	return &resp, nil
}

// SubmitManual records a verified professional's offer on a published project.
func (s *QuoteService) SubmitManual(ctx context.Context, actor request_models.Actor, projectID uuid.UUID, req request_models.SubmitQuoteRequest) (*response_models.QuoteResponse, error) {
	pro, err := lookupProfessional(ctx, s.proRepo, actor)
	if err != nil {
		return nil, err
	}
	if !pro.Verified {
		return nil, fmt.Errorf("%w: professional is not verified", utils.ErrForbidden)
	}
	if req.Price <= 0 || req.EstimatedDurationDays < 1 {
		return nil, invalid("price and estimated_duration_days must be positive")
	}

	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.Published {
		return nil, utils.ErrProjectNotFound
	}
	if !project.Status.OpenForQuotes() {
		return nil, utils.ErrInvalidTransition
	}

	quote := &db_models.Quote{
		ProjectID:             project.ID,
		ProfessionalID:        pro.ID,
		Source:                db_models.QuoteManual,
		Status:                db_models.QuotePending,
		Price:                 quoting.RoundCents(req.Price),
		EstimatedHours:        req.EstimatedHours,
		EstimatedDurationDays: req.EstimatedDurationDays,
		Message:               req.Message,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quoteRepo.WithTx(tx).Create(ctx, quote); err != nil {
			return dbErr(err)
		}
		return markQuoted(ctx, s.projectRepo.WithTx(tx), project)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("manual quote submitted", zap.String("quote_id", quote.ID.String()), zap.String("project_id", project.ID.String()))
	resp := toQuoteResponse(quote)
	return &resp, nil
}

// Counter is the client's answer to a pending quote.
func (s *QuoteService) Counter(ctx context.Context, actor request_models.Actor, quoteID uuid.UUID, req request_models.CounterQuoteRequest) (*response_models.QuoteResponse, error) {
	if req.Price <= 0 {
		return nil, invalid("price must be positive")
	}
	quote, project, err := s.quoteAndProject(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !actor.IsClient() || project.ClientID != actor.ID {
		return nil, utils.ErrForbidden
	}
	if !project.Status.OpenForQuotes() {
		return nil, utils.ErrInvalidTransition
	}

	price := quoting.RoundCents(req.Price)
	err = s.quoteRepo.UpdateStatus(ctx, quote.ID, []db_models.QuoteStatus{db_models.QuotePending}, db_models.QuoteCountered, map[string]interface{}{
		"counter_price":   price,
		"counter_message": req.Message,
	})
	if err != nil {
		return nil, quoteWriteErr(err)
	}

	quote.Status = db_models.QuoteCountered
	quote.CounterPrice = &price
	quote.CounterMessage = req.Message
	resp := toQuoteResponse(quote)
	return &resp, nil
}

// Accept binds a quote. The client accepts pending quotes, the quoting professional accepts
// the client's counter.
func (s *QuoteService) Accept(ctx context.Context, actor request_models.Actor, quoteID uuid.UUID) (*response_models.QuoteResponse, error) {
	quote, project, err := s.quoteAndProject(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	expected, err := s.acceptorStatus(ctx, actor, quote, project)
	if err != nil {
		return nil, err
	}
	if !project.Status.OpenForQuotes() {
		return nil, utils.ErrInvalidTransition
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return acceptQuote(ctx, s.quoteRepo.WithTx(tx), s.projectRepo.WithTx(tx), quote, project, expected)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote accepted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.Float64("price", quote.FinalPrice()),
	)
	s.notifyAccepted(ctx, quote, project, expected)
	resp := toQuoteResponse(quote)
	return &resp, nil
}

func (s *QuoteService) Reject(ctx context.Context, actor request_models.Actor, quoteID uuid.UUID) (*response_models.QuoteResponse, error) {
	quote, project, err := s.quoteAndProject(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	var from []db_models.QuoteStatus
	switch {
	case actor.IsClient() && project.ClientID == actor.ID:
		from = []db_models.QuoteStatus{db_models.QuotePending, db_models.QuoteCountered}
	case actor.IsProfessional():
		pro, err := lookupProfessional(ctx, s.proRepo, actor)
		if err != nil {
			return nil, err
		}
		if pro.ID != quote.ProfessionalID {
			return nil, utils.ErrForbidden
		}
		// a professional can only decline the client's counter
		from = []db_models.QuoteStatus{db_models.QuoteCountered}
	default:
		return nil, utils.ErrForbidden
	}

	if err := s.quoteRepo.UpdateStatus(ctx, quote.ID, from, db_models.QuoteRejected, nil); err != nil {
		return nil, quoteWriteErr(err)
	}
	quote.Status = db_models.QuoteRejected
	resp := toQuoteResponse(quote)
	return &resp, nil
}

// ListForProject shows every quote to the client and admins, and only their own quotes to
// professionals.
func (s *QuoteService) ListForProject(ctx context.Context, actor request_models.Actor, projectID uuid.UUID) ([]response_models.QuoteResponse, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var onlyPro *uuid.UUID
	switch {
	case actor.Owns(project.ClientID):
	case actor.IsProfessional():
		pro, err := lookupProfessional(ctx, s.proRepo, actor)
		if err != nil {
			return nil, err
		}
		onlyPro = &pro.ID
	default:
		return nil, utils.ErrForbidden
	}

	quotes, err := s.quoteRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, dbErr(err)
	}

	result := make([]response_models.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		if onlyPro != nil && quotes[i].ProfessionalID != *onlyPro {
			continue
		}
		result = append(result, toQuoteResponse(&quotes[i]))
	}
	return result, nil
}

func (s *QuoteService) acceptorStatus(ctx context.Context, actor request_models.Actor, quote *db_models.Quote, project *db_models.Project) (db_models.QuoteStatus, error) {
	switch {
	case actor.IsClient():
		if project.ClientID != actor.ID {
			return "", utils.ErrForbidden
		}
		if quote.Status != db_models.QuotePending {
			return "", utils.ErrQuoteClosed
		}
		return db_models.QuotePending, nil
	case actor.IsProfessional():
		pro, err := lookupProfessional(ctx, s.proRepo, actor)
		if err != nil {
			return "", err
		}
		if pro.ID != quote.ProfessionalID {
			return "", utils.ErrForbidden
		}
		if quote.Status != db_models.QuoteCountered {
			return "", utils.ErrQuoteClosed
		}
		return db_models.QuoteCountered, nil
	default:
		return "", utils.ErrForbidden
	}
}

func (s *QuoteService) ownedProject(ctx context.Context, actor request_models.Actor, projectID uuid.UUID) (*db_models.Project, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(project.ClientID) {
		return nil, utils.ErrForbidden
	}
	return project, nil
}

func (s *QuoteService) findProject(ctx context.Context, id uuid.UUID) (*db_models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if project == nil {
		return nil, utils.ErrProjectNotFound
	}
	return project, nil
}

func (s *QuoteService) quoteAndProject(ctx context.Context, quoteID uuid.UUID) (*db_models.Quote, *db_models.Project, error) {
	quote, err := s.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, nil, dbErr(err)
	}
	if quote == nil {
		return nil, nil, utils.ErrQuoteNotFound
	}
	project, err := s.findProject(ctx, quote.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return quote, project, nil
}

// acceptQuote accepts quote, rejects its open siblings and assigns the professional. It
// must run inside a transaction.
func acceptQuote(ctx context.Context, quotes repositories.QuoteRepository, projects repositories.ProjectRepository, quote *db_models.Quote, project *db_models.Project, expected db_models.QuoteStatus) error {
	if err := quotes.UpdateStatus(ctx, quote.ID, []db_models.QuoteStatus{expected}, db_models.QuoteAccepted, nil); err != nil {
		return quoteWriteErr(err)
	}
	quote.Status = db_models.QuoteAccepted

	if err := quotes.RejectOthers(ctx, project.ID, quote.ID); err != nil {
		return dbErr(err)
	}

	price := quote.FinalPrice()
	err := projects.Transition(ctx, project.ID,
		[]db_models.ProjectStatus{db_models.ProjectRequested, db_models.ProjectQuoted},
		db_models.ProjectAccepted,
		map[string]interface{}{
			"professional_id":   quote.ProfessionalID,
			"accepted_quote_id": quote.ID,
			"agreed_price":      price,
		})
	if err != nil {
		return transitionErr(err)
	}

	project.Status = db_models.ProjectAccepted
	project.ProfessionalID = &quote.ProfessionalID
	project.AcceptedQuoteID = &quote.ID
	project.AgreedPrice = &price
	return nil
}

// notifyAccepted tells the party that did not accept. A pending quote was accepted by the
// client, a countered one by the professional.
func (s *QuoteService) notifyAccepted(ctx context.Context, quote *db_models.Quote, project *db_models.Project, accepted db_models.QuoteStatus) {
	link := fmt.Sprintf("/projects/%s", project.ID)
	body := fmt.Sprintf("Le devis %s pour le projet %s a été accepté au prix de %.2f EUR.", quote.ID, project.WorkType, quote.FinalPrice())

	if accepted == db_models.QuoteCountered {
		s.notifier.notify(ctx, project.ClientID, "Votre contre-proposition a été acceptée", body, link)
		return
	}
	pro, err := s.proRepo.FindByID(ctx, quote.ProfessionalID)
	if err != nil || pro == nil {
		s.log.Warn("accepted quote without professional", zap.String("quote_id", quote.ID.String()), zap.Error(err))
		return
	}
	s.notifier.notify(ctx, pro.AccountID, "Votre devis a été accepté", body, link)
}

// markQuoted moves a requested project to quoted. A project already quoted stays as is.
func markQuoted(ctx context.Context, projects repositories.ProjectRepository, project *db_models.Project) error {
	if project.Status != db_models.ProjectRequested {
		return nil
	}
	err := projects.Transition(ctx, project.ID, []db_models.ProjectStatus{db_models.ProjectRequested}, db_models.ProjectQuoted, nil)
	if err != nil && !errors.Is(err, utils.ErrConcurrentUpdate) {
		return dbErr(err)
	}
	if err == nil {
		project.Status = db_models.ProjectQuoted
	}
	return nil
}

func quoteWriteErr(err error) error {
	if errors.Is(err, utils.ErrConcurrentUpdate) {
		return utils.ErrQuoteClosed
	}
	return dbErr(err)
}

func transitionErr(err error) error {
	if errors.Is(err, utils.ErrConcurrentUpdate) {
		return utils.ErrInvalidTransition
	}
	return dbErr(err)
}

func toQuoteResponse(q *db_models.Quote) response_models.QuoteResponse {
	return response_models.QuoteResponse{
		ID:                    q.ID,
		ProjectID:             q.ProjectID,
		ProfessionalID:        q.ProfessionalID,
		Source:                string(q.Source),
		Status:                string(q.Status),
		Price:                 q.Price,
		EstimatedHours:        q.EstimatedHours,
		EstimatedDurationDays: q.EstimatedDurationDays,
		Message:               q.Message,
		CounterPrice:          q.CounterPrice,
		CounterMessage:        q.CounterMessage,
		CreatedAt:             q.CreatedAt,
	}
}
