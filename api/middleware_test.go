package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillexchange/skill-exchange-backend/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := primitive.NewObjectID().Hex()
	token, err := utils.GenerateToken(userID)
	if err != nil {
		t.Fatal(err)
	}

	var gotID string
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d with valid token, want 200", rec.Code)
	}
	if gotID != userID {
		t.Errorf("context user id = %q, want %q", gotID, userID)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler reached without a valid token")
	})

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	token, err := utils.GenerateToken(primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("JWT_SECRET", "second-secret")
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("token signed with a different secret was accepted")
	})
	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestIsValidMobile(t *testing.T) {
	valid := []string{"9876543210", "0000000000"}
	invalid := []string{"", "12345", "98765432101", "98765abc10", "+919876543210"}
	for _, v := range valid {
		if !IsValidMobile(v) {
			t.Errorf("IsValidMobile(%q) = false, want true", v)
		}
	}
	for _, v := range invalid {
		if IsValidMobile(v) {
			t.Errorf("IsValidMobile(%q) = true, want false", v)
		}
	}
}

func TestIsValidGender(t *testing.T) {
	for _, v := range []string{"male", "Female", "OTHER"} {
		if !IsValidGender(v) {
			t.Errorf("IsValidGender(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "unknown", "m"} {
		if IsValidGender(v) {
			t.Errorf("IsValidGender(%q) = true, want false", v)
		}
	}
}
