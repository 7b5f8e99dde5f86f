package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"gorm.io/gorm"
)

type GormReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (r *GormReviewRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	if len(ids) == 0 {
		return reviews, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *GormReviewRepository) List(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	var reviews []models.Review

	query := r.db.WithContext(ctx).Model(&models.Review{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserEmail != "" {
		query = query.Where("user_email = ?", filter.UserEmail)
	}
	if filter.FoodNameContains != "" {
		query = query.Where("food_name ILIKE ?", "%"+escapeLike(filter.FoodNameContains)+"%")
	}

	err := query.Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *GormReviewRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Review{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return removeFromUserFavorites(tx, id.String())
	})
}

func (r *GormReviewRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.StatusPending:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormReviewRepository) SetIsFavoriteBy(ctx context.Context, id uuid.UUID, emails []string) error {
	return r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", id).
		Update("is_favorite_by", pq.StringArray(emails)).Error
}

// AddFavorite appends to both sets only where the value is absent, so retries are harmless.
func (r *GormReviewRepository) AddFavorite(ctx context.Context, id uuid.UUID, email string) error {
	reviewID := id.String()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Review{}).
			Where("id = ? AND array_position(is_favorite_by, ?) IS NULL", id, email).
			Update("is_favorite_by", gorm.Expr("array_append(is_favorite_by, ?)", email)).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("email = ? AND array_position(favorites, ?) IS NULL", email, reviewID).
			Update("favorites", gorm.Expr("array_append(favorites, ?)", reviewID)).Error
	})
}

func (r *GormReviewRepository) RemoveFavorite(ctx context.Context, id uuid.UUID, email string) error {
	reviewID := id.String()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Review{}).
			Where("id = ?", id).
			Update("is_favorite_by", gorm.Expr("array_remove(is_favorite_by, ?)", email)).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("email = ?", email).
			Update("favorites", gorm.Expr("array_remove(favorites, ?)", reviewID)).Error
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
