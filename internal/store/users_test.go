package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alaf-team/alaf/internal/db"
	"github.com/alaf-team/alaf/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Kim Minsu", "minsu@example.com", "hash", "010-1234-5678", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role USER, got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got == nil || got.Email != "minsu@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}

	byEmail, err := GetUserByEmail(ctx, database, "minsu@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("unexpected user by email: %+v", byEmail)
	}
}

func TestGetUserMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	got, err := GetUser(ctx, database, 99)
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for missing user, got %+v, %v", got, err)
	}

	byEmail, err := GetUserByEmail(ctx, database, "nobody@example.com")
	if err != nil || byEmail != nil {
		t.Errorf("expected nil, nil for missing email, got %+v, %v", byEmail, err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "First", "dup@example.com", "hash", "", model.RoleUser); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := CreateUser(ctx, database, "Second", "dup@example.com", "hash", "", model.RoleUser)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "Pw User", "pw@example.com", "old-hash", "", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := UpdateUserPassword(ctx, database, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "new-hash" {
		t.Errorf("expected updated hash, got %q", got.PasswordHash)
	}
}

func TestVerificationCodeFlow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	code, err := CreateVerificationCode(ctx, database, "new@example.com", now)
	if err != nil {
		t.Fatalf("CreateVerificationCode: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("expected 6-digit code, got %q", code)
	}

	// Registration before verification is refused.
	if err := ConsumeVerification(ctx, database, "new@example.com"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation before verification, got %v", err)
	}

	if err := VerifyCode(ctx, database, "new@example.com", "000000x", now); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation on wrong code, got %v", err)
	}
	if err := VerifyCode(ctx, database, "new@example.com", code, now.Add(CodeExpiry+time.Second)); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation on expired code, got %v", err)
	}
	if err := VerifyCode(ctx, database, "new@example.com", code, now.Add(time.Minute)); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}

	// The verification admits exactly one registration.
	if err := ConsumeVerification(ctx, database, "new@example.com"); err != nil {
		t.Fatalf("ConsumeVerification: %v", err)
	}
	if err := ConsumeVerification(ctx, database, "new@example.com"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation on second consume, got %v", err)
	}
}

func TestVerificationCodeReplaced(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	first, err := CreateVerificationCode(ctx, database, "re@example.com", now)
	if err != nil {
		t.Fatalf("CreateVerificationCode: %v", err)
	}
	second, err := CreateVerificationCode(ctx, database, "re@example.com", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("CreateVerificationCode: %v", err)
	}

	if first != second {
		if err := VerifyCode(ctx, database, "re@example.com", first, now.Add(2*time.Minute)); !errors.Is(err, model.ErrValidation) {
			t.Errorf("expected the old code to be invalid, got %v", err)
		}
	}
	if err := VerifyCode(ctx, database, "re@example.com", second, now.Add(2*time.Minute)); err != nil {
		t.Errorf("expected the latest code to verify, got %v", err)
	}
}

func TestTokenRevocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "some-jti")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("unknown JTI should not be revoked")
	}

	if err := RevokeToken(ctx, database, "some-jti", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err = IsTokenRevoked(ctx, database, "some-jti")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("revoked JTI should be reported as revoked")
	}

	// Revoking twice is harmless.
	if err := RevokeToken(ctx, database, "some-jti", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("RevokeToken repeat: %v", err)
	}
}

func TestJWTSecretPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}

	second, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if first != second {
		t.Error("secret should be stable across calls")
	}
}

func TestSeedPlacesIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	names := []string{"A동 (종합교육관)", "G동 (도서관)"}
	if err := SeedPlaces(ctx, database, names); err != nil {
		t.Fatalf("SeedPlaces: %v", err)
	}
	if err := SeedPlaces(ctx, database, names); err != nil {
		t.Fatalf("SeedPlaces repeat: %v", err)
	}

	places, err := ListPlaces(ctx, database)
	if err != nil {
		t.Fatalf("ListPlaces: %v", err)
	}
	if len(places) != 2 {
		t.Errorf("expected 2 places after repeated seeding, got %d", len(places))
	}
	if places[0].Name != names[0] {
		t.Errorf("expected insertion order, got %q first", places[0].Name)
	}
}
