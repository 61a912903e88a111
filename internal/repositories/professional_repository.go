package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
)

type ProfessionalFilter struct {
	Verified           *bool
	VerificationStatus db_models.VerificationStatus
}

type ProfessionalRepository interface {
	WithTx(tx *gorm.DB) ProfessionalRepository
	Create(ctx context.Context, p *db_models.Professional) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Professional, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*db_models.Professional, error)
	List(ctx context.Context, filter ProfessionalFilter) ([]db_models.Professional, error)
	Save(ctx context.Context, p *db_models.Professional) error
}

type professionalRepository struct {
	db *gorm.DB
}

func NewProfessionalRepository(db *gorm.DB) ProfessionalRepository {
	return &professionalRepository{db: db}
}

func (r *professionalRepository) WithTx(tx *gorm.DB) ProfessionalRepository {
	return &professionalRepository{db: tx}
}

func (r *professionalRepository) Create(ctx context.Context, p *db_models.Professional) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *professionalRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Professional, error) {
	return first[db_models.Professional](r.db.WithContext(ctx), "id = ?", id)
}

func (r *professionalRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*db_models.Professional, error) {
	return first[db_models.Professional](r.db.WithContext(ctx), "account_id = ?", accountID)
}

// List filters on plain columns only; specialty matching happens in memory since the JSON
// operators differ between postgres and sqlite.
func (r *professionalRepository) List(ctx context.Context, filter ProfessionalFilter) ([]db_models.Professional, error) {
	q := r.db.WithContext(ctx)
	if filter.Verified != nil {
		q = q.Where("verified = ?", *filter.Verified)
	}
	if filter.VerificationStatus != "" {
		q = q.Where("verification_status = ?", filter.VerificationStatus)
	}

	var pros []db_models.Professional
	err := q.Order("created_at ASC").Find(&pros).Error
	return pros, err
}

func (r *professionalRepository) Save(ctx context.Context, p *db_models.Professional) error {
	return r.db.WithContext(ctx).Save(p).Error
}
