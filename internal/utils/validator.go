package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IsValidRole(role string) bool {
	validRoles := []string{"admin", "user"}
	for _, validRole := range validRoles {
		if role == validRole {
			return true
		}
	}
	return false
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

// IsValidRating accepts 1-5; 0 means the reviewer left no rating.
func IsValidRating(rating int) bool {
	return rating >= 0 && rating <= 5
}

// ParseID parses a path identifier, reporting false for anything that is not a UUID.
func ParseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
