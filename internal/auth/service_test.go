package auth

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/storage/memory"
)

func newTestService() *Service {
	return New(memory.NewStore(), "test-secret", zap.NewNop())
}

func TestRegisterLoginResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, err := svc.Register(ctx, "alex", "alex@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}

	token, err := svc.Login(ctx, "alex@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	uid, err := svc.ResolveUser(token)
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if uid != user.ID {
		t.Errorf("resolved uid = %s, want %s", uid, user.ID)
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.Register(ctx, "alex", "alex@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alex", "other@example.com", "pw"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("duplicate username err = %v, want conflict", err)
	}
	if _, err := svc.Register(ctx, "other", "alex@example.com", "pw"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("duplicate email err = %v, want conflict", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.Register(ctx, "", "a@example.com", "pw"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
	if _, err := svc.Register(ctx, "alex", "a@example.com", ""); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	svc.Register(ctx, "alex", "alex@example.com", "correct")

	if _, err := svc.Login(ctx, "alex@example.com", "wrong"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("wrong password err = %v, want auth error", err)
	}
	// Unknown email must be indistinguishable from a wrong password.
	if _, err := svc.Login(ctx, "nobody@example.com", "correct"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("unknown email err = %v, want auth error", err)
	}
}

func TestResolveUserRejectsBadTokens(t *testing.T) {
	svc := newTestService()

	if _, err := svc.ResolveUser(""); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("missing token err = %v, want auth error", err)
	}
	if _, err := svc.ResolveUser("not-a-jwt"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("garbage token err = %v, want auth error", err)
	}

	// A token signed with a different secret must not verify.
	other := New(memory.NewStore(), "other-secret", zap.NewNop())
	other.Register(context.Background(), "alex", "alex@example.com", "pw")
	token, err := other.Login(context.Background(), "alex@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.ResolveUser(token); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("wrong-secret token err = %v, want auth error", err)
	}
}

func TestResolveUserRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	svc.ttl = -time.Hour // tokens are born expired

	svc.Register(ctx, "alex", "alex@example.com", "pw")
	token, err := svc.Login(ctx, "alex@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = svc.ResolveUser(token)
	if !apperr.IsKind(err, apperr.KindAuth) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if err.Error() != "token has expired" {
		t.Errorf("err message = %q, want 'token has expired'", err.Error())
	}
}

func TestProfileOperations(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, _ := svc.Register(ctx, "alex", "alex@example.com", "pw")

	if err := svc.UpdateUsername(ctx, user.ID, "sam"); err != nil {
		t.Fatalf("UpdateUsername: %v", err)
	}
	got, _ := svc.GetProfile(ctx, user.ID)
	if got.Username != "sam" {
		t.Errorf("username = %s, want sam", got.Username)
	}

	if err := svc.ChangePassword(ctx, user.ID, "newpw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "alex@example.com", "pw"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("old password still works after change")
	}
	if _, err := svc.Login(ctx, "alex@example.com", "newpw"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := svc.DeleteProfile(ctx, user.ID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if _, err := svc.GetProfile(ctx, user.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("profile survived delete: %v", err)
	}
}
