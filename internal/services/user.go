package services

import (
	"context"
	"errors"
	"strings"

	"github.com/princeprakhar/foodiespace-backend/internal/identity"
	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
	"github.com/princeprakhar/foodiespace-backend/internal/utils"
	apperrors "github.com/princeprakhar/foodiespace-backend/pkg/errors"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
)

type UserService struct {
	users    repositories.UserRepository
	reviews  repositories.ReviewRepository
	identity identity.Provider
}

func NewUserService(users repositories.UserRepository, reviews repositories.ReviewRepository, provider identity.Provider) *UserService {
	return &UserService{users: users, reviews: reviews, identity: provider}
}

// Register inserts the user unless the email is already known, in which case the stored
// record is returned untouched.
func (s *UserService) Register(ctx context.Context, req models.RegisterUserRequest) (*models.RegisterUserResponse, error) {
	email := strings.ToLower(utils.SanitizeString(req.Email))
	if !utils.IsValidEmail(email) {
		return nil, apperrors.NewValidationError("invalid email format")
	}

	role := utils.SanitizeString(req.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !utils.IsValidRole(role) {
		return nil, apperrors.NewValidationError("invalid role, must be user or admin")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return &models.RegisterUserResponse{Created: false, User: existing}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewInternalError("failed to look up user", err)
	}

	user := &models.User{
		Email:    email,
		Name:     utils.SanitizeString(req.Name),
		PhotoURL: utils.SanitizeString(req.PhotoURL),
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race with a concurrent registration of the same email.
			existing, findErr := s.users.FindByEmail(ctx, email)
			if findErr == nil {
				return &models.RegisterUserResponse{Created: false, User: existing}, nil
			}
		}
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	logger.WithFields(map[string]interface{}{"email": email, "role": role}).Info("user registered")
	return &models.RegisterUserResponse{Created: true, User: user}, nil
}

// GetByEmail returns the user for email. Callers other than the user themself must be admins.
func (s *UserService) GetByEmail(ctx context.Context, email, actorEmail string) (*models.User, error) {
	email = strings.ToLower(email)
	if email != actorEmail {
		isAdmin, err := s.isAdmin(ctx, actorEmail)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, apperrors.NewForbiddenError("you can only view your own profile")
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to fetch user")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch users", err)
	}
	return users, nil
}

// SetRole changes the role of target. The admin count is read fresh on every call so the last
// admin can never be demoted.
func (s *UserService) SetRole(ctx context.Context, targetEmail, role, actorEmail string) (*models.User, error) {
	if !utils.IsValidRole(role) {
		return nil, apperrors.NewValidationError("invalid role, must be user or admin")
	}
	targetEmail = strings.ToLower(targetEmail)
	if targetEmail == actorEmail {
		return nil, apperrors.NewForbiddenError("you cannot change your own role")
	}

	target, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to fetch user")
	}

	if target.IsAdmin() && role != models.RoleAdmin {
		admins, err := s.users.CountByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to count admins", err)
		}
		if admins <= 1 {
			return nil, apperrors.NewForbiddenError("cannot demote the last remaining admin")
		}
	}

	if err := s.users.UpdateRole(ctx, targetEmail, role); err != nil {
		return nil, notFoundOr(err, "user not found", "failed to update role")
	}

	logger.WithFields(map[string]interface{}{
		"target": targetEmail,
		"role":   role,
		"actor":  actorEmail,
	}).Info("user role changed")

	target.Role = role
	return target, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error) {
	if req.Name == nil && req.PhotoURL == nil {
		return nil, apperrors.NewValidationError("nothing to update, provide name or photoURL")
	}
	if req.Name != nil {
		name := utils.SanitizeString(*req.Name)
		req.Name = &name
	}
	if req.PhotoURL != nil {
		photo := utils.SanitizeString(*req.PhotoURL)
		req.PhotoURL = &photo
	}

	user, err := s.users.UpdateProfile(ctx, email, req)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to update profile")
	}
	return user, nil
}

// Delete removes the user identified by rawID together with their reviews. The identity-provider
// account is removed first on a best-effort basis; its failure is logged and ignored.
func (s *UserService) Delete(ctx context.Context, rawID, actorEmail string) (*models.DeleteUserResponse, error) {
	id, ok := utils.ParseID(rawID)
	if !ok {
		return nil, apperrors.NewValidationError("invalid user id")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to fetch user")
	}
	if user.Email == actorEmail {
		return nil, apperrors.NewForbiddenError("you cannot delete your own account")
	}

	if s.identity != nil {
		if err := s.identity.DeleteAccount(ctx, user.Email); err != nil {
			logger.WithFields(map[string]interface{}{"email": user.Email}).
				Warn("failed to delete identity provider account: ", err)
		}
	}

	deletedReviews, err := s.users.DeleteWithReviews(ctx, user)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to delete user")
	}

	logger.WithFields(map[string]interface{}{
		"email":          user.Email,
		"deletedReviews": deletedReviews,
		"actor":          actorEmail,
	}).Info("user deleted")

	return &models.DeleteUserResponse{DeletedUser: true, DeletedReviews: deletedReviews}, nil
}

// Favorites resolves the caller's favorites set to reviews. Ids that no longer resolve are skipped.
func (s *UserService) Favorites(ctx context.Context, email string) ([]models.Review, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to fetch user")
	}

	ids := parseIDs(user.Favorites)
	reviews, err := s.reviews.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch favorite reviews", err)
	}
	return reviews, nil
}

func (s *UserService) isAdmin(ctx context.Context, email string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewInternalError("failed to fetch user", err)
	}
	return user.IsAdmin(), nil
}

// notFoundOr maps a repository error to NotFound or Internal.
func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewNotFoundError(notFoundMsg)
	}
	return apperrors.NewInternalError(internalMsg, err)
}
