package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
	"khaja/pkg/utils"
)

type ProjectRepository interface {
	WithTx(tx *gorm.DB) ProjectRepository
	Create(ctx context.Context, p *db_models.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Project, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]db_models.Project, error)
	// ListForProfessional returns projects assigned to the professional plus published
	// projects still open for quotes.
	ListForProfessional(ctx context.Context, professionalID uuid.UUID) ([]db_models.Project, error)
	ListAll(ctx context.Context, status db_models.ProjectStatus) ([]db_models.Project, error)

	// Transition moves the project from one of the given statuses to next, applying extra
	// column updates. utils.ErrConcurrentUpdate means the project was no longer in from.
	Transition(ctx context.Context, id uuid.UUID, from []db_models.ProjectStatus, next db_models.ProjectStatus, extra map[string]interface{}) error
	SetPublished(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) WithTx(tx *gorm.DB) ProjectRepository {
	return &projectRepository{db: tx}
}

func (r *projectRepository) Create(ctx context.Context, p *db_models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Project, error) {
	return first[db_models.Project](r.db.WithContext(ctx), "id = ?", id)
}

func (r *projectRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]db_models.Project, error) {
	var projects []db_models.Project
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) ListForProfessional(ctx context.Context, professionalID uuid.UUID) ([]db_models.Project, error) {
	var projects []db_models.Project
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Or("published = ? AND status IN ?", true, []db_models.ProjectStatus{db_models.ProjectRequested, db_models.ProjectQuoted}).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) ListAll(ctx context.Context, status db_models.ProjectStatus) ([]db_models.Project, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var projects []db_models.Project
	err := q.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Transition(ctx context.Context, id uuid.UUID, from []db_models.ProjectStatus, next db_models.ProjectStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": time.Now().Unix(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&db_models.Project{}).
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

func (r *projectRepository) SetPublished(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Project{}).
		Where("id = ?", id).
		Update("published", true).Error
}
