package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
	"khaja/pkg/utils"
)

type QuoteRepository interface {
	WithTx(tx *gorm.DB) QuoteRepository
	Create(ctx context.Context, q *db_models.Quote) error
	CreateBatch(ctx context.Context, quotes []db_models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Quote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]db_models.Quote, error)

	// UpdateStatus is a conditional write on the quote status; utils.ErrConcurrentUpdate
	// means the quote had left the from set.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []db_models.QuoteStatus, next db_models.QuoteStatus, extra map[string]interface{}) error
	RejectOthers(ctx context.Context, projectID, keepID uuid.UUID) error
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) WithTx(tx *gorm.DB) QuoteRepository {
	return &quoteRepository{db: tx}
}

func (r *quoteRepository) Create(ctx context.Context, q *db_models.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quoteRepository) CreateBatch(ctx context.Context, quotes []db_models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&quotes).Error
}

func (r *quoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Quote, error) {
	return first[db_models.Quote](r.db.WithContext(ctx), "id = ?", id)
}

func (r *quoteRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]db_models.Quote, error) {
	var quotes []db_models.Quote
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("price ASC, created_at ASC").
		Find(&quotes).Error
	return quotes, err
}

func (r *quoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []db_models.QuoteStatus, next db_models.QuoteStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": time.Now().Unix(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&db_models.Quote{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrConcurrentUpdate
	}
	return nil
}

func (r *quoteRepository) RejectOthers(ctx context.Context, projectID, keepID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Quote{}).
		Where("project_id = ? AND id <> ? AND status IN ?", projectID, keepID,
			[]db_models.QuoteStatus{db_models.QuotePending, db_models.QuoteCountered}).
		Updates(map[string]interface{}{
			"status":     db_models.QuoteRejected,
			"updated_at": time.Now().Unix(),
		}).Error
}
