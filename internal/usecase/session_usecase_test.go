package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/eslsoft/kanaplay/internal/entity"
)

func newSessionFixture() (*syncFixture, SessionUsecase) {
	f := newSyncFixture()
	f.uc.SetToken("")
	return f, NewSessionUsecase(f.uc, f.users, f.flags, quietLogger())
}

func TestLogin_StoresTokenAndFetchesUser(t *testing.T) {
	ctx := context.Background()
	f, session := newSessionFixture()

	user, err := session.Login(ctx, " secret ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "koichi" || user.ID != entity.CurrentUserID {
		t.Fatalf("unexpected user %+v", user)
	}
	if token, ok, _ := f.flags.Get(ctx, KeyAuthToken); !ok || token != "secret" {
		t.Fatalf("expected trimmed token stored, got %q", token)
	}
	if f.remote.token != "secret" || !f.uc.HasToken() {
		t.Fatalf("expected token handed to the sync engine")
	}
}

func TestLogin_RejectedTokenNotKept(t *testing.T) {
	ctx := context.Background()
	f, session := newSessionFixture()
	f.remote.userErr = entity.ErrUnauthorized

	if _, err := session.Login(ctx, "bad"); !errors.Is(err, entity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok, _ := f.flags.Get(ctx, KeyAuthToken); ok {
		t.Fatalf("rejected token must not be stored")
	}
	if f.uc.HasToken() {
		t.Fatalf("rejected token must be cleared from the sync engine")
	}

	if _, err := session.Login(ctx, ""); !errors.Is(err, entity.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	f, session := newSessionFixture()

	ok, err := session.Restore(ctx)
	if err != nil || ok {
		t.Fatalf("expected nothing to restore, got ok=%v err=%v", ok, err)
	}
	_ = f.flags.Set(ctx, KeyAuthToken, "stored")
	ok, err = session.Restore(ctx)
	if err != nil || !ok || f.remote.token != "stored" {
		t.Fatalf("expected stored token restored, got ok=%v err=%v token=%q", ok, err, f.remote.token)
	}
}

func TestEnterAsGuest(t *testing.T) {
	ctx := context.Background()
	_, session := newSessionFixture()

	if _, err := session.EnterAsGuest(ctx); err != nil {
		t.Fatalf("guest: %v", err)
	}
	user, err := session.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if !user.Guest || user.MaxLevelGranted != entity.GuestMaxLevel {
		t.Fatalf("unexpected guest %+v", user)
	}
}

func TestLogout_ClearsDataAndToken(t *testing.T) {
	ctx := context.Background()
	f, session := newSessionFixture()
	f.remote.subjectPages = [][]entity.Subject{subjectsRange(1, 2)}
	if _, err := session.Login(ctx, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.uc.SyncSubjects(ctx, false); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if err := session.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := f.flags.Get(ctx, KeyAuthToken); ok {
		t.Fatalf("token must be deleted")
	}
	if f.subjects.len() != 0 || f.uc.HasToken() {
		t.Fatalf("expected data wiped and token cleared")
	}
	if _, err := session.CurrentUser(ctx); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected no user after logout, got %v", err)
	}
}
