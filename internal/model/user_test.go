package model

import (
	"errors"
	"testing"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidateUniversityID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"1234567890", false},
		{"0000000000", false},
		{"123456789", true},
		{"12345678901", true},
		{"12345abcde", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateUniversityID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateUniversityID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}

func TestValidateUniversityIDLengthAcceptsNonDigits(t *testing.T) {
	if err := ValidateUniversityIDLength("abcdefghij"); err != nil {
		t.Errorf("expected length-only check to pass, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"a@klh.edu.in", false},
		{"student.name@klh.edu.in", false},
		{"a@gmail.com", true},
		{"@klh.edu.in", true},
		{"a@klh.edu.in.evil.com", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
		}
	}
}

func TestValidationErrorIsMatchable(t *testing.T) {
	err := ValidateEmail("a@gmail.com")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "email" {
		t.Errorf("expected field 'email', got %q", verr.Field)
	}
}
