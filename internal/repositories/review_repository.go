package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaja/internal/models/db_models"
)

type ReviewRepositoryInterface interface {
	WithTx(tx *gorm.DB) ReviewRepositoryInterface
	CreateReview(ctx context.Context, review *db_models.Review) error
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, page, pageSize int) ([]db_models.Review, error)
	AverageRatings(ctx context.Context, professionalIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) WithTx(tx *gorm.DB) ReviewRepositoryInterface {
	return &ReviewRepository{db: tx}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, review *db_models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *ReviewRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, page, pageSize int) ([]db_models.Review, error) {
	var reviews []db_models.Review
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", professionalID).
		Scopes(paginate(page, pageSize)).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

type ratingRow struct {
	ProfessionalID uuid.UUID `gorm:"column:professional_id"`
	Average        float64   `gorm:"column:average"`
}

func (r *ReviewRepository) AverageRatings(ctx context.Context, professionalIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(professionalIDs))
	if len(professionalIDs) == 0 {
		return out, nil
	}

	var rows []ratingRow
	err := r.db.WithContext(ctx).
		Model(&db_models.Review{}).
		Select("professional_id, AVG(rating) AS average").
		Where("professional_id IN ?", professionalIDs).
		Group("professional_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProfessionalID] = row.Average
	}
	return out, nil
}
