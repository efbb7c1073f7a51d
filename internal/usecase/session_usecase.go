package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/repository"
)

// KeyAuthToken holds the remote credential in the flag store.
const KeyAuthToken = "auth_token"

// SessionUsecase manages the identity on this device.
type SessionUsecase interface {
	// Login stores token after the remote accepted it for a user fetch.
	Login(ctx context.Context, token string) (*entity.User, error)
	// Restore loads a previously stored token into the sync engine. It reports whether one was found.
	Restore(ctx context.Context) (bool, error)
	EnterAsGuest(ctx context.Context) (*entity.User, error)
	// Logout wipes remote replicas and forgets the token. Encounters are kept.
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*entity.User, error)
}

type sessionUsecase struct {
	syncer SyncUsecase
	users  repository.UserRepository
	flags  repository.FlagRepository
	logger logrus.FieldLogger
}

// NewSessionUsecase creates a new SessionUsecase.
func NewSessionUsecase(syncer SyncUsecase, users repository.UserRepository, flags repository.FlagRepository, logger *logrus.Logger) SessionUsecase {
	return &sessionUsecase{syncer: syncer, users: users, flags: flags, logger: logger}
}

func (u *sessionUsecase) Login(ctx context.Context, token string) (*entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, entity.ErrNoToken
	}

	u.syncer.SetToken(token)
	if err := u.syncer.SyncUser(ctx, true); err != nil {
		u.syncer.SetToken("")
		if errors.Is(err, entity.ErrUnauthorized) {
			u.logger.Warn("login rejected by remote")
		}
		return nil, err
	}
	if err := u.flags.Set(ctx, KeyAuthToken, token); err != nil {
		return nil, err
	}

	user, err := u.users.Get(ctx)
	if err != nil {
		return nil, err
	}
	u.logger.WithField("username", user.Username).Info("logged in")
	return user, nil
}

func (u *sessionUsecase) Restore(ctx context.Context) (bool, error) {
	token, ok, err := u.flags.Get(ctx, KeyAuthToken)
	if err != nil {
		return false, err
	}
	if !ok || strings.TrimSpace(token) == "" {
		return false, nil
	}
	u.syncer.SetToken(token)
	return true, nil
}

func (u *sessionUsecase) EnterAsGuest(ctx context.Context) (*entity.User, error) {
	guest := entity.NewGuestUser()
	if err := u.users.Save(ctx, guest); err != nil {
		return nil, err
	}
	u.logger.Info("entered as guest")
	return guest, nil
}

func (u *sessionUsecase) Logout(ctx context.Context) error {
	if err := u.syncer.ClearData(ctx); err != nil {
		return err
	}
	if err := u.flags.Delete(ctx, KeyAuthToken); err != nil {
		return err
	}
	u.syncer.SetToken("")
	u.logger.Info("logged out")
	return nil
}

func (u *sessionUsecase) CurrentUser(ctx context.Context) (*entity.User, error) {
	return u.users.Get(ctx)
}
