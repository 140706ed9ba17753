package model

import (
	"fmt"
	"strings"
)

// User is the authenticated portal user. There is no user collection: a user
// exists as the active session or as the identity inside an API token.
type User struct {
	ID           string `json:"id"`
	UniversityID string `json:"universityId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// Party returns the snapshot copied into items the user reports or claims.
func (u User) Party() Party {
	return Party{ID: u.ID, Name: u.Name, UniversityID: u.UniversityID}
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	return levels[role] > 0 && levels[role] >= levels[minimum] && levels[minimum] > 0
}

// UniversityIDLength is the length of a university ID.
const UniversityIDLength = 10

// EmailDomain is the suffix required of registration emails.
const EmailDomain = "@klh.edu.in"

// ValidationError is a user-facing input error. Operations that return it
// have not mutated any state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUniversityIDLength checks only the length of a university ID, which
// is all the login form requires.
func ValidateUniversityIDLength(id string) error {
	if len(id) != UniversityIDLength {
		return &ValidationError{Field: "universityId", Message: "university ID must be 10 digits"}
	}
	return nil
}

// ValidateUniversityID checks that id is exactly 10 decimal digits.
func ValidateUniversityID(id string) error {
	if err := ValidateUniversityIDLength(id); err != nil {
		return err
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return &ValidationError{Field: "universityId", Message: "university ID must be 10 digits"}
		}
	}
	return nil
}

// ValidateEmail checks that email belongs to the university domain.
func ValidateEmail(email string) error {
	local, ok := strings.CutSuffix(email, EmailDomain)
	if !ok || local == "" {
		return &ValidationError{Field: "email", Message: "must use a university email (" + EmailDomain + ")"}
	}
	return nil
}
