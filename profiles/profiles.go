package profiles

import (
	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a profile's role within the application
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Can manage profiles, enrolment, and settings
	RoleTeacher  RoleType = "teacher"  // Staff profile with classroom access
	RoleStudent  RoleType = "student"  // Regular student profile
	RoleGuardian RoleType = "guardian" // Parent/guardian profile linked to students
)

// Profile is the business-owned identity record. The credential service knows
// nothing about it; the link between the two is held in CanonicalLoginIdentity
// and LinkedCredentialID, which only the repair path mutates.
type Profile struct {
	ID                     int64    `json:"id"`                                // Stable primary key
	Username               string   `json:"username"`                          // Unique, case-insensitive
	DisplayName            string   `json:"display_name,omitempty"`            // Name shown in the application
	Role                   RoleType `json:"role,omitempty"`                    // Role within the application
	CanonicalLoginIdentity *string  `json:"canonical_login_identity,omitempty"` // Cached credential-service identity, nil until derived
	LinkedCredentialID     *string  `json:"linked_credential_id,omitempty"`    // Set once binding succeeds, nil before first claim
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
