package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/quoting"
	"khaja/internal/repositories"
	"khaja/pkg/utils"
)

type ProfessionalServiceInterface interface {
	List(ctx context.Context, query request_models.ListProfessionalsQuery) ([]response_models.ProfessionalResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*response_models.ProfessionalResponse, error)
	ListReviews(ctx context.Context, id uuid.UUID, page, pageSize int) ([]response_models.ReviewResponse, error)
	UpdateMyRates(ctx context.Context, actor request_models.Actor, req request_models.UpdateRatesRequest) (*response_models.ProfessionalResponse, error)
	SubmitVerification(ctx context.Context, actor request_models.Actor, req request_models.SubmitVerificationRequest) (*response_models.ProfessionalResponse, error)
	AdminUpdateRates(ctx context.Context, id uuid.UUID, req request_models.UpdateRatesRequest) (*response_models.ProfessionalResponse, error)
	Verify(ctx context.Context, id uuid.UUID, req request_models.VerifyProfessionalRequest) (*response_models.ProfessionalResponse, error)
	// RateCards returns the calculator inputs of every verified professional.
	RateCards(ctx context.Context) ([]quoting.RateCard, error)
}

type ProfessionalService struct {
	proRepo    repositories.ProfessionalRepository
	reviewRepo repositories.ReviewRepositoryInterface
	catalog    *entitlement.Catalog
	log        *zap.Logger
}

func NewProfessionalService(
	proRepo repositories.ProfessionalRepository,
	reviewRepo repositories.ReviewRepositoryInterface,
	catalog *entitlement.Catalog,
	log *zap.Logger,
) ProfessionalServiceInterface {
	return &ProfessionalService{
		proRepo:    proRepo,
		reviewRepo: reviewRepo,
		catalog:    catalog,
		log:        log.Named("professional"),
	}
}

func (s *ProfessionalService) List(ctx context.Context, query request_models.ListProfessionalsQuery) ([]response_models.ProfessionalResponse, error) {
	if query.WorkType != "" && !s.catalog.HasCategory(query.WorkType) {
		return nil, invalid("unknown work type %q", query.WorkType)
	}

	pros, err := s.proRepo.List(ctx, repositories.ProfessionalFilter{Verified: query.Verified})
	if err != nil {
		return nil, dbErr(err)
	}

	filtered := make([]db_models.Professional, 0, len(pros))
	ids := make([]uuid.UUID, 0, len(pros))
	for _, p := range pros {
		if query.WorkType != "" && !p.HasSpecialty(query.WorkType) {
			continue
		}
		filtered = append(filtered, p)
		ids = append(ids, p.ID)
	}

	ratings, err := s.reviewRepo.AverageRatings(ctx, ids)
	if err != nil {
		return nil, dbErr(err)
	}

	result := make([]response_models.ProfessionalResponse, 0, len(filtered))
	for i := range filtered {
		result = append(result, toProfessionalResponse(&filtered[i], ratings))
	}
	return result, nil
}

func (s *ProfessionalService) Get(ctx context.Context, id uuid.UUID) (*response_models.ProfessionalResponse, error) {
	pro, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, pro)
}

func (s *ProfessionalService) ListReviews(ctx context.Context, id uuid.UUID, page, pageSize int) ([]response_models.ReviewResponse, error) {
	if page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, utils.ErrInvalidPageSize
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByProfessional(ctx, id, page, pageSize)
	if err != nil {
		return nil, dbErr(err)
	}

	out := make([]response_models.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, response_models.ReviewResponse{
			ID:        r.ID,
			ProjectID: r.ProjectID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// UpdateMyRates lets a professional edit their own rate card. Verification is untouched.
func (s *ProfessionalService) UpdateMyRates(ctx context.Context, actor request_models.Actor, req request_models.UpdateRatesRequest) (*response_models.ProfessionalResponse, error) {
	pro, err := lookupProfessional(ctx, s.proRepo, actor)
	if err != nil {
		return nil, err
	}
	return s.applyRates(ctx, pro, req)
}

func (s *ProfessionalService) AdminUpdateRates(ctx context.Context, id uuid.UUID, req request_models.UpdateRatesRequest) (*response_models.ProfessionalResponse, error) {
	pro, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyRates(ctx, pro, req)
}

func (s *ProfessionalService) SubmitVerification(ctx context.Context, actor request_models.Actor, req request_models.SubmitVerificationRequest) (*response_models.ProfessionalResponse, error) {
	pro, err := lookupProfessional(ctx, s.proRepo, actor)
	if err != nil {
		return nil, err
	}
	if pro.VerificationStatus == db_models.VerificationApproved {
		return nil, utils.ErrInvalidTransition
	}

	pro.VerificationDocuments = req.Documents
	pro.VerificationStatus = db_models.VerificationPending
	pro.VerificationNote = ""
	if err := s.proRepo.Save(ctx, pro); err != nil {
		return nil, dbErr(err)
	}

	s.log.Info("verification submitted", zap.String("professional_id", pro.ID.String()), zap.Int("documents", len(req.Documents)))
	return s.respond(ctx, pro)
}

func (s *ProfessionalService) Verify(ctx context.Context, id uuid.UUID, req request_models.VerifyProfessionalRequest) (*response_models.ProfessionalResponse, error) {
	pro, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	pro.Verified = req.Approve
	pro.VerificationNote = req.Note
	if req.Approve {
		pro.VerificationStatus = db_models.VerificationApproved
	} else {
		pro.VerificationStatus = db_models.VerificationRejected
	}
	if err := s.proRepo.Save(ctx, pro); err != nil {
		return nil, dbErr(err)
	}

	s.log.Info("professional verification decided",
		zap.String("professional_id", pro.ID.String()),
		zap.Bool("approved", req.Approve),
	)
	return s.respond(ctx, pro)
}

func (s *ProfessionalService) RateCards(ctx context.Context) ([]quoting.RateCard, error) {
	verified := true
	pros, err := s.proRepo.List(ctx, repositories.ProfessionalFilter{Verified: &verified})
	if err != nil {
		return nil, dbErr(err)
	}

	cards := make([]quoting.RateCard, 0, len(pros))
	for _, p := range pros {
		cards = append(cards, toRateCard(p))
	}
	return cards, nil
}

func (s *ProfessionalService) applyRates(ctx context.Context, pro *db_models.Professional, req request_models.UpdateRatesRequest) (*response_models.ProfessionalResponse, error) {
	if req.HourlyRate < 0 {
		return nil, invalid("hourly_rate must not be negative")
	}
	for workType, rate := range req.SquareMeterRates {
		if !s.catalog.HasCategory(workType) {
			return nil, invalid("unknown work type %q", workType)
		}
		if rate < 0 {
			return nil, invalid("rate for %q must not be negative", workType)
		}
	}

	seen := make(map[string]bool, len(req.Specialties))
	specialties := make([]string, 0, len(req.Specialties))
	for _, sp := range req.Specialties {
		if !s.catalog.HasCategory(sp) {
			return nil, invalid("unknown specialty %q", sp)
		}
		if !seen[sp] {
			seen[sp] = true
			specialties = append(specialties, sp)
		}
	}
	sort.Strings(specialties)

	rates := make(map[string]float64, len(req.SquareMeterRates))
	for k, v := range req.SquareMeterRates {
		rates[k] = v
	}

	pro.HourlyRate = req.HourlyRate
	pro.SquareMeterRates = datatypes.NewJSONType(rates)
	pro.Specialties = specialties
	if err := s.proRepo.Save(ctx, pro); err != nil {
		return nil, dbErr(err)
	}

	s.log.Info("rates updated", zap.String("professional_id", pro.ID.String()), zap.Int("work_types", len(rates)))
	return s.respond(ctx, pro)
}

func (s *ProfessionalService) find(ctx context.Context, id uuid.UUID) (*db_models.Professional, error) {
	pro, err := s.proRepo.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if pro == nil {
		return nil, utils.ErrProfessionalNotFound
	}
	return pro, nil
}

func (s *ProfessionalService) respond(ctx context.Context, pro *db_models.Professional) (*response_models.ProfessionalResponse, error) {
	ratings, err := s.reviewRepo.AverageRatings(ctx, []uuid.UUID{pro.ID})
	if err != nil {
		return nil, dbErr(err)
	}
	resp := toProfessionalResponse(pro, ratings)
	return &resp, nil
}

// lookupProfessional resolves the rate card behind a professional account.
func lookupProfessional(ctx context.Context, repo repositories.ProfessionalRepository, actor request_models.Actor) (*db_models.Professional, error) {
	if !actor.IsProfessional() {
		return nil, utils.ErrForbidden
	}
	pro, err := repo.FindByAccountID(ctx, actor.ID)
	if err != nil {
		return nil, dbErr(err)
	}
	if pro == nil {
		return nil, utils.ErrProfessionalNotFound
	}
	return pro, nil
}

func toRateCard(p db_models.Professional) quoting.RateCard {
	return quoting.RateCard{
		ProfessionalID:   p.ID,
		HourlyRate:       p.HourlyRate,
		SquareMeterRates: p.SquareMeterRates.Data(),
		Specialties:      p.Specialties,
		Verified:         p.Verified,
	}
}

func toProfessionalResponse(p *db_models.Professional, ratings map[uuid.UUID]float64) response_models.ProfessionalResponse {
	rates := p.SquareMeterRates.Data()
	if rates == nil {
		rates = map[string]float64{}
	}
	specialties := []string(p.Specialties)
	if specialties == nil {
		specialties = []string{}
	}

	resp := response_models.ProfessionalResponse{
		ID:                 p.ID,
		AccountID:          p.AccountID,
		DisplayName:        p.DisplayName,
		City:               p.City,
		HourlyRate:         p.HourlyRate,
		SquareMeterRates:   rates,
		Specialties:        specialties,
		Verified:           p.Verified,
		VerificationStatus: string(p.VerificationStatus),
	}
	if avg, ok := ratings[p.ID]; ok {
		resp.AverageRating = &avg
	}
	return resp
}
