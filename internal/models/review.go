package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Review struct {
	ID             uuid.UUID      `json:"_id" gorm:"type:uuid;primaryKey"`
	UserEmail      string         `json:"userEmail" gorm:"not null;index"`
	ReviewerName   string         `json:"reviewerName"`
	ReviewerPhoto  string         `json:"reviewerPhoto"`
	FoodName       string         `json:"foodName" gorm:"not null"`
	RestaurantName string         `json:"restaurantName"`
	Location       string         `json:"location"`
	Rating         int            `json:"rating" gorm:"check:rating >= 0 AND rating <= 5"`
	ReviewText     string         `json:"reviewText"`
	FoodImage      string         `json:"foodImage"`
	PhotoURL       string         `json:"photoURL,omitempty"`
	PhotoKey       string         `json:"-"`
	Status         string         `json:"status" gorm:"not null;default:pending;index"`
	IsFavoriteBy   pq.StringArray `json:"isFavoriteBy" gorm:"type:text[];not null;default:'{}'"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.IsFavoriteBy == nil {
		r.IsFavoriteBy = pq.StringArray{}
	}
	return nil
}

func (r *Review) AfterFind(tx *gorm.DB) error {
	if r.IsFavoriteBy == nil {
		r.IsFavoriteBy = pq.StringArray{}
	}
	return nil
}

// IsFavoritedBy reports whether email is in the review's isFavoriteBy set.
func (r *Review) IsFavoritedBy(email string) bool {
	return contains(r.IsFavoriteBy, email)
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CreateReviewRequest accepts a client-sent status so the field is not rejected, but it is
// always overwritten with pending.
type CreateReviewRequest struct {
	UserEmail      string `json:"userEmail" binding:"required"`
	ReviewerName   string `json:"reviewerName"`
	ReviewerPhoto  string `json:"reviewerPhoto"`
	FoodName       string `json:"foodName" binding:"required"`
	RestaurantName string `json:"restaurantName"`
	Location       string `json:"location"`
	Rating         int    `json:"rating"`
	ReviewText     string `json:"reviewText"`
	FoodImage      string `json:"foodImage"`
	Status         string `json:"status"`
}

type UpdateReviewRequest struct {
	FoodName       *string `json:"foodName,omitempty"`
	RestaurantName *string `json:"restaurantName,omitempty"`
	Location       *string `json:"location,omitempty"`
	Rating         *int    `json:"rating,omitempty"`
	ReviewText     *string `json:"reviewText,omitempty"`
	FoodImage      *string `json:"foodImage,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type FavoriteToggleResponse struct {
	ReviewID   string `json:"reviewId"`
	IsFavorite bool   `json:"isFavorite"`
}

type ReconcileResponse struct {
	RepairedUsers   int `json:"repairedUsers"`
	RepairedReviews int `json:"repairedReviews"`
}

type DashboardStats struct {
	TotalUsers      int64            `json:"totalUsers"`
	TotalAdmins     int64            `json:"totalAdmins"`
	TotalReviews    int64            `json:"totalReviews"`
	ReviewsByStatus map[string]int64 `json:"reviewsByStatus"`
}
