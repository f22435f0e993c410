package utils

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	userID := primitive.NewObjectID().Hex()
	tokenString, err := GenerateToken(userID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	token, err := ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	got, err := UserIDFromToken(token)
	if err != nil {
		t.Fatalf("UserIDFromToken failed: %v", err)
	}
	if got != userID {
		t.Errorf("user id = %q, want %q", got, userID)
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := GenerateToken("abc"); err == nil {
		t.Error("expected error with empty JWT_SECRET")
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	tokenString, err := GenerateToken("abc")
	if err != nil {
		t.Fatal(err)
	}

	tampered := tokenString[:len(tokenString)-2] + "xx"
	if token, err := ValidateToken(tampered); err == nil && token.Valid {
		t.Error("tampered token validated")
	}
}
