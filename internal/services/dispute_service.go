package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/repositories"
	"khaja/pkg/utils"
)

type DisputeServiceInterface interface {
	Open(ctx context.Context, actor request_models.Actor, projectID uuid.UUID, req request_models.OpenDisputeRequest) (*response_models.DisputeResponse, error)
	Resolve(ctx context.Context, actor request_models.Actor, disputeID uuid.UUID, req request_models.ResolveDisputeRequest) (*response_models.DisputeResponse, error)
	List(ctx context.Context, actor request_models.Actor, status string, page, pageSize int) ([]response_models.DisputeResponse, error)
}

type DisputeService struct {
	db          *gorm.DB
	disputeRepo repositories.DisputeRepository
	projectRepo repositories.ProjectRepository
	proRepo     repositories.ProfessionalRepository
	notifier    accountNotifier
	log         *zap.Logger
}

func NewDisputeService(
	db *gorm.DB,
	disputeRepo repositories.DisputeRepository,
	projectRepo repositories.ProjectRepository,
	proRepo repositories.ProfessionalRepository,
	accountRepo repositories.AccountRepository,
	mail IMailService,
	log *zap.Logger,
) DisputeServiceInterface {
	log = log.Named("dispute")
	return &DisputeService{
		db:          db,
		disputeRepo: disputeRepo,
		projectRepo: projectRepo,
		proRepo:     proRepo,
		notifier:    accountNotifier{accounts: accountRepo, mail: mail, log: log},
		log:         log,
	}
}

// Open freezes a project under work. Either party may open it, and a project carries at
// most one open dispute.
func (s *DisputeService) Open(ctx context.Context, actor request_models.Actor, projectID uuid.UUID, req request_models.OpenDisputeRequest) (*response_models.DisputeResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason is required")
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, dbErr(err)
	}
	if project == nil {
		return nil, utils.ErrProjectNotFound
	}
	if err := s.checkParty(ctx, actor, project); err != nil {
		return nil, err
	}
	if !db_models.CanTransition(project.Status, db_models.ProjectDisputed) {
		return nil, utils.ErrInvalidTransition
	}

	dispute := &db_models.Dispute{
		ProjectID: project.ID,
		OpenedBy:  actor.ID,
		Reason:    reason,
		Status:    db_models.DisputeOpen,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		disputes := s.disputeRepo.WithTx(tx)
		existing, err := disputes.FindOpenByProject(ctx, project.ID)
		if err != nil {
			return dbErr(err)
		}
		if existing != nil {
			return utils.ErrInvalidTransition
		}
		if err := s.projectRepo.WithTx(tx).Transition(ctx, project.ID, []db_models.ProjectStatus{project.Status}, db_models.ProjectDisputed, nil); err != nil {
			return transitionErr(err)
		}
		if err := disputes.Create(ctx, dispute); err != nil {
			return dbErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dispute opened",
		zap.String("dispute_id", dispute.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("from", string(project.Status)),
	)
	resp := toDisputeResponse(dispute)
	return &resp, nil
}

// Resolve settles an open dispute. resume sends the project back to work, close marks it
// completed so the client can validate it.
func (s *DisputeService) Resolve(ctx context.Context, actor request_models.Actor, disputeID uuid.UUID, req request_models.ResolveDisputeRequest) (*response_models.DisputeResponse, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}

	var next db_models.ProjectStatus
	switch db_models.DisputeOutcome(req.Outcome) {
	case db_models.OutcomeResume:
		next = db_models.ProjectInProgress
	case db_models.OutcomeClose:
		next = db_models.ProjectCompleted
	default:
		return nil, invalid("outcome must be resume or close")
	}

	dispute, err := s.disputeRepo.FindByID(ctx, disputeID)
	if err != nil {
		return nil, dbErr(err)
	}
	if dispute == nil {
		return nil, utils.ErrDisputeNotFound
	}
	if dispute.Status != db_models.DisputeOpen {
		return nil, utils.ErrInvalidTransition
	}

	resolvedAt := utils.NowUnixSeconds()
	dispute.Outcome = db_models.DisputeOutcome(req.Outcome)
	dispute.Resolution = strings.TrimSpace(req.Resolution)
	dispute.ResolvedBy = &actor.ID
	dispute.ResolvedAt = &resolvedAt

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.disputeRepo.WithTx(tx).Resolve(ctx, dispute); err != nil {
			return transitionErr(err)
		}
		if err := s.projectRepo.WithTx(tx).Transition(ctx, dispute.ProjectID, []db_models.ProjectStatus{db_models.ProjectDisputed}, next, nil); err != nil {
			return transitionErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dispute resolved",
		zap.String("dispute_id", dispute.ID.String()),
		zap.String("outcome", string(dispute.Outcome)),
		zap.String("resolved_by", actor.ID.String()),
	)
	s.notifyResolved(ctx, dispute, next)
	resp := toDisputeResponse(dispute)
	return &resp, nil
}

func (s *DisputeService) List(ctx context.Context, actor request_models.Actor, status string, page, pageSize int) ([]response_models.DisputeResponse, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	if page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, utils.ErrInvalidPageSize
	}
	switch db_models.DisputeStatus(status) {
	case "", db_models.DisputeOpen, db_models.DisputeResolved:
	default:
		return nil, invalid("unknown dispute status %q", status)
	}

	disputes, err := s.disputeRepo.List(ctx, db_models.DisputeStatus(status), page, pageSize)
	if err != nil {
		return nil, dbErr(err)
	}
	out := make([]response_models.DisputeResponse, 0, len(disputes))
	for i := range disputes {
		out = append(out, toDisputeResponse(&disputes[i]))
	}
	return out, nil
}

func (s *DisputeService) notifyResolved(ctx context.Context, dispute *db_models.Dispute, next db_models.ProjectStatus) {
	project, err := s.projectRepo.FindByID(ctx, dispute.ProjectID)
	if err != nil || project == nil {
		s.log.Warn("resolved dispute without project", zap.String("dispute_id", dispute.ID.String()), zap.Error(err))
		return
	}

	subject := "Litige résolu"
	body := fmt.Sprintf("Le litige sur le projet %s est résolu. Statut du projet : %s. %s", project.WorkType, next, dispute.Resolution)
	link := fmt.Sprintf("/projects/%s", project.ID)

	s.notifier.notify(ctx, project.ClientID, subject, body, link)
	if project.ProfessionalID == nil {
		return
	}
	pro, err := s.proRepo.FindByID(ctx, *project.ProfessionalID)
	if err != nil || pro == nil {
		return
	}
	s.notifier.notify(ctx, pro.AccountID, subject, body, link)
}

func (s *DisputeService) checkParty(ctx context.Context, actor request_models.Actor, project *db_models.Project) error {
	if actor.IsClient() {
		if project.ClientID != actor.ID {
			return utils.ErrForbidden
		}
		return nil
	}
	pro, err := lookupProfessional(ctx, s.proRepo, actor)
	if err != nil {
		return err
	}
	if project.ProfessionalID == nil || *project.ProfessionalID != pro.ID {
		return utils.ErrForbidden
	}
	return nil
}

func toDisputeResponse(d *db_models.Dispute) response_models.DisputeResponse {
	return response_models.DisputeResponse{
		ID:         d.ID,
		ProjectID:  d.ProjectID,
		OpenedBy:   d.OpenedBy,
		Reason:     d.Reason,
		Status:     string(d.Status),
		Outcome:    string(d.Outcome),
		Resolution: d.Resolution,
		ResolvedBy: d.ResolvedBy,
		CreatedAt:  d.CreatedAt,
	}
}
