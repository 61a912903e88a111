package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
	"khaja/pkg/utils"
)

type DisputeRepository interface {
	WithTx(tx *gorm.DB) DisputeRepository
	Create(ctx context.Context, d *db_models.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Dispute, error)
	FindOpenByProject(ctx context.Context, projectID uuid.UUID) (*db_models.Dispute, error)
	List(ctx context.Context, status db_models.DisputeStatus, page, pageSize int) ([]db_models.Dispute, error)
	// Resolve closes an open dispute; utils.ErrConcurrentUpdate if it was already resolved.
	Resolve(ctx context.Context, d *db_models.Dispute) error
}

type disputeRepository struct {
	db *gorm.DB
}

func NewDisputeRepository(db *gorm.DB) DisputeRepository {
	return &disputeRepository{db: db}
}

func (r *disputeRepository) WithTx(tx *gorm.DB) DisputeRepository {
	return &disputeRepository{db: tx}
}

func (r *disputeRepository) Create(ctx context.Context, d *db_models.Dispute) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *disputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Dispute, error) {
	return first[db_models.Dispute](r.db.WithContext(ctx), "id = ?", id)
}

func (r *disputeRepository) FindOpenByProject(ctx context.Context, projectID uuid.UUID) (*db_models.Dispute, error) {
	return first[db_models.Dispute](r.db.WithContext(ctx), "project_id = ? AND status = ?", projectID, db_models.DisputeOpen)
}

func (r *disputeRepository) List(ctx context.Context, status db_models.DisputeStatus, page, pageSize int) ([]db_models.Dispute, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var disputes []db_models.Dispute
	err := q.Scopes(paginate(page, pageSize)).
		Order("created_at DESC").
		Find(&disputes).Error
	return disputes, err
}

func (r *disputeRepository) Resolve(ctx context.Context, d *db_models.Dispute) error {
	res := r.db.WithContext(ctx).
		Model(&db_models.Dispute{}).
		Where("id = ? AND status = ?", d.ID, db_models.DisputeOpen).
		Updates(map[string]interface{}{
			"status":      db_models.DisputeResolved,
			"outcome":     d.Outcome,
			"resolution":  d.Resolution,
			"resolved_by": d.ResolvedBy,
			"resolved_at": d.ResolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrConcurrentUpdate
	}
	d.Status = db_models.DisputeResolved
	return nil
}
