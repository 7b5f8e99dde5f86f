package services

import (
	"context"

	"github.com/princeprakhar/foodiespace-backend/internal/models"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
	apperrors "github.com/princeprakhar/foodiespace-backend/pkg/errors"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
)

type AdminService struct {
	users   repositories.UserRepository
	reviews repositories.ReviewRepository
}

func NewAdminService(users repositories.UserRepository, reviews repositories.ReviewRepository) *AdminService {
	return &AdminService{users: users, reviews: reviews}
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count users", err)
	}
	admins, err := s.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count admins", err)
	}
	byStatus, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count reviews", err)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	return &models.DashboardStats{
		TotalUsers:      users,
		TotalAdmins:     admins,
		TotalReviews:    total,
		ReviewsByStatus: byStatus,
	}, nil
}

// ReconcileFavorites repairs drift between users' favorites and reviews' isFavoriteBy. Links to
// missing documents are dropped and one-sided links are completed on the other side.
func (s *AdminService) ReconcileFavorites(ctx context.Context) (*models.ReconcileResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch users", err)
	}
	reviews, err := s.reviews.List(ctx, repositories.ReviewFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch reviews", err)
	}

	userExists := make(map[string]bool, len(users))
	for _, u := range users {
		userExists[u.Email] = true
	}
	reviewExists := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		reviewExists[r.ID.String()] = true
	}

	// Union of both sides, restricted to documents that still exist.
	wantFavorites := make(map[string][]string, len(users))
	wantFavoriteBy := make(map[string][]string, len(reviews))
	for _, u := range users {
		for _, id := range u.Favorites {
			if reviewExists[id] {
				wantFavorites[u.Email] = appendUnique(wantFavorites[u.Email], id)
			}
		}
	}
	for _, r := range reviews {
		id := r.ID.String()
		for _, email := range r.IsFavoriteBy {
			if userExists[email] {
				wantFavoriteBy[id] = appendUnique(wantFavoriteBy[id], email)
			}
		}
	}
	for email, ids := range wantFavorites {
		for _, id := range ids {
			wantFavoriteBy[id] = appendUnique(wantFavoriteBy[id], email)
		}
	}
	for id, emails := range wantFavoriteBy {
		for _, email := range emails {
			wantFavorites[email] = appendUnique(wantFavorites[email], id)
		}
	}

	result := &models.ReconcileResponse{}
	for _, u := range users {
		want := wantFavorites[u.Email]
		if sameSet(u.Favorites, want) && len(u.Favorites) == len(want) {
			continue
		}
		if err := s.users.SetFavorites(ctx, u.Email, nonNil(want)); err != nil {
			return nil, apperrors.NewInternalError("failed to repair user favorites", err)
		}
		result.RepairedUsers++
	}
	for _, r := range reviews {
		want := wantFavoriteBy[r.ID.String()]
		if sameSet(r.IsFavoriteBy, want) && len(r.IsFavoriteBy) == len(want) {
			continue
		}
		if err := s.reviews.SetIsFavoriteBy(ctx, r.ID, nonNil(want)); err != nil {
			return nil, apperrors.NewInternalError("failed to repair review favorites", err)
		}
		result.RepairedReviews++
	}

	logger.WithFields(map[string]interface{}{
		"repairedUsers":   result.RepairedUsers,
		"repairedReviews": result.RepairedReviews,
	}).Info("favorites reconciled")

	return result, nil
}

func appendUnique(set []string, value string) []string {
	for _, v := range set {
		if v == value {
			return set
		}
	}
	return append(set, value)
}

// sameSet reports whether every element of a is in b and vice versa.
func sameSet(a, b []string) bool {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	for _, v := range a {
		if !in[v] {
			return false
		}
	}
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
