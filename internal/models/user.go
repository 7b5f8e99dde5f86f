package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uuid.UUID      `json:"_id" gorm:"type:uuid;primaryKey"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Name      string         `json:"name"`
	PhotoURL  string         `json:"photoURL"`
	Role      string         `json:"role" gorm:"not null;default:user;index"`
	Favorites pq.StringArray `json:"favorites" gorm:"type:text[];not null;default:'{}'"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Favorites == nil {
		u.Favorites = pq.StringArray{}
	}
	return nil
}

func (u *User) AfterFind(tx *gorm.DB) error {
	if u.Favorites == nil {
		u.Favorites = pq.StringArray{}
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasFavorite reports whether reviewID is in the user's favorites set.
func (u *User) HasFavorite(reviewID string) bool {
	return contains(u.Favorites, reviewID)
}

type RegisterUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
	Role     string `json:"role"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	PhotoURL *string `json:"photoURL,omitempty"`
}

type RegisterUserResponse struct {
	Created bool  `json:"created"`
	User    *User `json:"user"`
}

type DeleteUserResponse struct {
	DeletedUser    bool  `json:"deletedUser"`
	DeletedReviews int64 `json:"deletedReviews"`
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
