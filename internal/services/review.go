package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
	"github.com/princeprakhar/foodiespace-backend/internal/utils"
	apperrors "github.com/princeprakhar/foodiespace-backend/pkg/errors"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
)

// Notifier tells a review owner about a moderation decision.
type Notifier interface {
	SendModerationNotice(to, foodName, status string) error
}

// PhotoStore keeps uploaded review photos.
type PhotoStore interface {
	UploadImage(file multipart.File, header *multipart.FileHeader) (*UploadResult, error)
	DeleteImage(key string) error
}

type ReviewService struct {
	reviews  repositories.ReviewRepository
	users    repositories.UserRepository
	notifier Notifier
	photos   PhotoStore
}

// NewReviewService builds the service. notifier and photos may be nil when mail or object
// storage is not configured.
func NewReviewService(reviews repositories.ReviewRepository, users repositories.UserRepository, notifier Notifier, photos PhotoStore) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, notifier: notifier, photos: photos}
}

// CreateReview stores a new review owned by actorEmail. Status is always pending.
func (s *ReviewService) CreateReview(ctx context.Context, actorEmail string, req models.CreateReviewRequest) (*models.Review, error) {
	if strings.ToLower(utils.SanitizeString(req.UserEmail)) != actorEmail {
		return nil, apperrors.NewForbiddenError("you can only submit reviews as yourself")
	}

	foodName := utils.SanitizeString(req.FoodName)
	if foodName == "" {
		return nil, apperrors.NewValidationError("foodName is required")
	}
	if !utils.IsValidRating(req.Rating) {
		return nil, apperrors.NewValidationError("rating must be between 0 and 5")
	}

	review := &models.Review{
		UserEmail:      actorEmail,
		ReviewerName:   utils.SanitizeString(req.ReviewerName),
		ReviewerPhoto:  utils.SanitizeString(req.ReviewerPhoto),
		FoodName:       foodName,
		RestaurantName: utils.SanitizeString(req.RestaurantName),
		Location:       utils.SanitizeString(req.Location),
		Rating:         req.Rating,
		ReviewText:     utils.SanitizeString(req.ReviewText),
		FoodImage:      utils.SanitizeString(req.FoodImage),
		Status:         models.StatusPending,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, apperrors.NewInternalError("failed to create review", err)
	}
	return review, nil
}

func (s *ReviewService) GetApprovedReviews(ctx context.Context) ([]models.Review, error) {
	return s.list(ctx, repositories.ReviewFilter{Status: models.StatusApproved})
}

func (s *ReviewService) GetPendingReviews(ctx context.Context) ([]models.Review, error) {
	return s.list(ctx, repositories.ReviewFilter{Status: models.StatusPending})
}

func (s *ReviewService) GetUserReviews(ctx context.Context, email string) ([]models.Review, error) {
	return s.list(ctx, repositories.ReviewFilter{UserEmail: email})
}

// GetAllReviews lists reviews of one status, or of every status when status is empty.
func (s *ReviewService) GetAllReviews(ctx context.Context, status string) ([]models.Review, error) {
	if status != "" && !models.IsValidStatus(status) {
		return nil, apperrors.NewValidationError("invalid status, must be approved, rejected, or pending")
	}
	return s.list(ctx, repositories.ReviewFilter{Status: status})
}

// SearchReviews matches q against food names of approved reviews.
func (s *ReviewService) SearchReviews(ctx context.Context, q string) ([]models.Review, error) {
	q = utils.SanitizeString(q)
	if q == "" {
		return nil, apperrors.NewValidationError("search query q is required")
	}
	return s.list(ctx, repositories.ReviewFilter{Status: models.StatusApproved, FoodNameContains: q})
}

func (s *ReviewService) GetReview(ctx context.Context, rawID string) (*models.Review, error) {
	_, review, err := s.load(ctx, rawID)
	return review, err
}

// UpdateReview edits content fields. Only the owner may edit, admins included. Status and
// isFavoriteBy are never written here, so a concurrent moderation or favorite survives the edit.
func (s *ReviewService) UpdateReview(ctx context.Context, rawID, actorEmail string, req models.UpdateReviewRequest) (*models.Review, error) {
	id, review, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if review.UserEmail != actorEmail {
		return nil, apperrors.NewForbiddenError("you can only edit your own reviews")
	}

	fields := make(map[string]interface{})
	if req.FoodName != nil {
		foodName := utils.SanitizeString(*req.FoodName)
		if foodName == "" {
			return nil, apperrors.NewValidationError("foodName cannot be empty")
		}
		fields[repositories.ColumnFoodName] = foodName
	}
	if req.Rating != nil {
		if !utils.IsValidRating(*req.Rating) {
			return nil, apperrors.NewValidationError("rating must be between 0 and 5")
		}
		fields[repositories.ColumnRating] = *req.Rating
	}
	if req.RestaurantName != nil {
		fields[repositories.ColumnRestaurantName] = utils.SanitizeString(*req.RestaurantName)
	}
	if req.Location != nil {
		fields[repositories.ColumnLocation] = utils.SanitizeString(*req.Location)
	}
	if req.ReviewText != nil {
		fields[repositories.ColumnReviewText] = utils.SanitizeString(*req.ReviewText)
	}
	if req.FoodImage != nil {
		fields[repositories.ColumnFoodImage] = utils.SanitizeString(*req.FoodImage)
	}
	if len(fields) == 0 {
		return review, nil
	}

	if err := s.reviews.UpdateFields(ctx, id, fields); err != nil {
		return nil, notFoundOr(err, "review not found", "failed to update review")
	}
	return s.reload(ctx, id)
}

// DeleteReview removes a review. The owner or any admin may delete.
func (s *ReviewService) DeleteReview(ctx context.Context, rawID, actorEmail string) error {
	id, review, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}

	if review.UserEmail != actorEmail {
		actor, err := s.users.FindByEmail(ctx, actorEmail)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewInternalError("failed to fetch user", err)
		}
		if actor == nil || !actor.IsAdmin() {
			return apperrors.NewForbiddenError("you can only delete your own reviews")
		}
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return notFoundOr(err, "review not found", "failed to delete review")
	}

	if review.PhotoKey != "" && s.photos != nil {
		go s.deletePhoto(review.PhotoKey)
	}
	return nil
}

// SetStatus moves a review to any moderation status. There is no enforced transition graph.
func (s *ReviewService) SetStatus(ctx context.Context, rawID, status string) (*models.Review, error) {
	if !models.IsValidStatus(status) {
		return nil, apperrors.NewValidationError("invalid status, must be approved, rejected, or pending")
	}

	id, review, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}

	if err := s.reviews.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFoundOr(err, "review not found", "failed to update review status")
	}
	review.Status = status

	if s.notifier != nil {
		go s.notify(review.UserEmail, review.FoodName, status)
	}
	return review, nil
}

// ToggleFavorite flips actorEmail's membership in the review's favorite relation, updating the
// review's isFavoriteBy and the user's favorites together. The caller must be a registered user.
func (s *ReviewService) ToggleFavorite(ctx context.Context, rawID, actorEmail string) (*models.FavoriteToggleResponse, error) {
	id, review, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByEmail(ctx, actorEmail); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewForbiddenError("register before adding favorites")
		}
		return nil, apperrors.NewInternalError("failed to fetch user", err)
	}

	if review.IsFavoritedBy(actorEmail) {
		if err := s.reviews.RemoveFavorite(ctx, id, actorEmail); err != nil {
			return nil, apperrors.NewInternalError("failed to remove favorite", err)
		}
		return &models.FavoriteToggleResponse{ReviewID: id.String(), IsFavorite: false}, nil
	}

	if err := s.reviews.AddFavorite(ctx, id, actorEmail); err != nil {
		return nil, apperrors.NewInternalError("failed to add favorite", err)
	}
	return &models.FavoriteToggleResponse{ReviewID: id.String(), IsFavorite: true}, nil
}

// UploadPhoto attaches an image to the owner's review, replacing any previous one.
func (s *ReviewService) UploadPhoto(ctx context.Context, rawID, actorEmail string, file multipart.File, header *multipart.FileHeader) (*models.Review, error) {
	if s.photos == nil {
		return nil, apperrors.NewUnavailableError("photo storage is not configured")
	}

	id, review, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if review.UserEmail != actorEmail {
		return nil, apperrors.NewForbiddenError("you can only add photos to your own reviews")
	}
	if _, err := validateImage(header); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	result, err := s.photos.UploadImage(file, header)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to upload photo", err)
	}

	err = s.reviews.UpdateFields(ctx, id, map[string]interface{}{
		repositories.ColumnPhotoURL: result.URL,
		repositories.ColumnPhotoKey: result.Key,
	})
	if err != nil {
		go s.deletePhoto(result.Key)
		return nil, notFoundOr(err, "review not found", "failed to save review photo")
	}

	if review.PhotoKey != "" {
		go s.deletePhoto(review.PhotoKey)
	}
	return s.reload(ctx, id)
}

func (s *ReviewService) list(ctx context.Context, filter repositories.ReviewFilter) ([]models.Review, error) {
	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch reviews", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) load(ctx context.Context, rawID string) (uuid.UUID, *models.Review, error) {
	id, ok := utils.ParseID(rawID)
	if !ok {
		return uuid.Nil, nil, apperrors.NewValidationError("invalid review id")
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return uuid.Nil, nil, notFoundOr(err, "review not found", "failed to fetch review")
	}
	return id, review, nil
}

func (s *ReviewService) reload(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review not found", "failed to fetch review")
	}
	return review, nil
}

func (s *ReviewService) notify(to, foodName, status string) {
	if err := s.notifier.SendModerationNotice(to, foodName, status); err != nil {
		logger.WithFields(map[string]interface{}{"to": to, "status": status}).
			Warn("failed to send moderation notice: ", err)
	}
}

func (s *ReviewService) deletePhoto(key string) {
	if err := s.photos.DeleteImage(key); err != nil {
		logger.WithFields(map[string]interface{}{"key": key}).
			Warn("failed to delete review photo: ", err)
	}
}

func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		if id, ok := utils.ParseID(r); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
