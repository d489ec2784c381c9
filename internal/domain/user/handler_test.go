package user

import (
	"testing"

	"github.com/luminaria/luminaria-api/internal/pkg/validator"
)

/* =========================
   Registration DTO Validation
   ========================= */

func TestRegisterRequestRejectsAdminRole(t *testing.T) {
	details := validator.Validate(registerRequest{
		Email:    "attacker@example.com",
		Password: "password123",
		Role:     "admin",
	})
	if details == nil {
		t.Fatal("expected validation failure for role admin")
	}
	if _, ok := details["role"]; !ok {
		t.Fatalf("expected role field error, got %v", details)
	}
}

func TestRegisterRequestAllowsMemberAndCreator(t *testing.T) {
	for _, role := range []string{"", "member", "creator"} {
		details := validator.Validate(registerRequest{
			Email:    "someone@example.com",
			Password: "password123",
			Role:     role,
		})
		if details != nil {
			t.Fatalf("expected role %q to validate, got %v", role, details)
		}
	}
}
