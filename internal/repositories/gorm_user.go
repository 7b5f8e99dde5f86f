package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) UpdateRole(ctx context.Context, email, role string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error) {
	updateData := make(map[string]interface{})
	if req.Name != nil {
		updateData["name"] = *req.Name
	}
	if req.PhotoURL != nil {
		updateData["photo_url"] = *req.PhotoURL
	}

	if len(updateData) > 0 {
		result := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Updates(updateData)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindByEmail(ctx, email)
}

func (r *GormUserRepository) SetFavorites(ctx context.Context, email string, favorites []string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("favorites", pq.StringArray(favorites)).Error
}

func (r *GormUserRepository) DeleteWithReviews(ctx context.Context, user *models.User) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewIDs []string
		if err := tx.Model(&models.Review{}).Where("user_email = ?", user.Email).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}

		result := tx.Where("user_email = ?", user.Email).Delete(&models.Review{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected

		for _, id := range reviewIDs {
			if err := removeFromUserFavorites(tx, id); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Review{}).
			Where("array_position(is_favorite_by, ?) IS NOT NULL", user.Email).
			Update("is_favorite_by", gorm.Expr("array_remove(is_favorite_by, ?)", user.Email)).Error; err != nil {
			return err
		}

		result = tx.Where("id = ?", user.ID).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func removeFromUserFavorites(tx *gorm.DB, reviewID string) error {
	return tx.Model(&models.User{}).
		Where("array_position(favorites, ?) IS NOT NULL", reviewID).
		Update("favorites", gorm.Expr("array_remove(favorites, ?)", reviewID)).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
