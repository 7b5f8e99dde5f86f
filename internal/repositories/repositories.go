package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
)

// Review columns the content editor and photo upload may write.
const (
	ColumnFoodName       = "food_name"
	ColumnRestaurantName = "restaurant_name"
	ColumnLocation       = "location"
	ColumnRating         = "rating"
	ColumnReviewText     = "review_text"
	ColumnFoodImage      = "food_image"
	ColumnPhotoURL       = "photo_url"
	ColumnPhotoKey       = "photo_key"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ReviewFilter narrows a review listing. Empty fields do not filter.
type ReviewFilter struct {
	Status    string
	UserEmail string
	// FoodNameContains is matched case-insensitively as a substring.
	FoodNameContains string
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	UpdateRole(ctx context.Context, email, role string) error
	UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error)
	SetFavorites(ctx context.Context, email string, favorites []string) error
	// DeleteWithReviews removes the user, every review they own and every favorite link pointing at
	// either, returning the number of reviews removed.
	DeleteWithReviews(ctx context.Context, user *models.User) (int64, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]models.Review, error)
	// UpdateFields writes only the named columns, leaving status and isFavoriteBy to their own
	// operations.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	SetIsFavoriteBy(ctx context.Context, id uuid.UUID, emails []string) error

	// AddFavorite and RemoveFavorite update both sides of the favorite relation with set semantics.
	AddFavorite(ctx context.Context, id uuid.UUID, email string) error
	RemoveFavorite(ctx context.Context, id uuid.UUID, email string) error
}

var (
	_ UserRepository   = (*GormUserRepository)(nil)
	_ ReviewRepository = (*GormReviewRepository)(nil)
)
