package util

import (
	"campus_exam_backend/internal/model"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParseJWT(t *testing.T) {
	user := &model.User{Name: "Ada Student", Email: "ada@example.test", Role: model.Student}
	user.ID = 7

	token, err := GenerateJWT(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("UserID = %d, want 7", claims.UserID)
	}
	if claims.Role != model.Student {
		t.Errorf("Role = %q, want %q", claims.Role, model.Student)
	}
}

func TestParseJWT_RejectsWrongSecret(t *testing.T) {
	user := &model.User{Email: "ada@example.test", Role: model.Student}
	token, err := GenerateJWT(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestParseJWT_RejectsWrongSigningMethod(t *testing.T) {
	claims := &Claims{
		UserID: 7,
		Role:   model.Student,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign HS384 token: %v", err)
	}

	if _, err := ParseJWT(signed, "test-secret"); err == nil {
		t.Fatal("token signed with a non-HS256 method must be rejected")
	}
}
