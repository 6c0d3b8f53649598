// Package services contains server-side business logic: accounts and
// tokens, the chat session directory, transcripts, conversation turns and
// transcript export.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/cryptox"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/auth"
	"github.com/dmitrijs2005/gemspark/internal/server/config"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Authenticate: verify credentials
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	store                        Store
	hasher                       cryptox.PasswordHasher
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	// dummyDigest is verified against when the user does not exist, so
	// unknown usernames cost the same as wrong passwords.
	dummyDigest []byte
	now         func() time.Time
}

func NewUserService(store Store, hasher cryptox.PasswordHasher, cfg *config.Config, logger logging.Logger) (*UserService, error) {
	dummy, err := hasher.Hash(common.GenerateRandByteArray(16))
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}
	return &UserService{
		store:                        store,
		hasher:                       hasher,
		logger:                       logger.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		dummyDigest:                  dummy,
		now:                          time.Now,
	}, nil
}

// Register creates a user storing only a hash of password. Usernames are
// matched exactly, case included.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	digest, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	var user *models.User
	err = s.store.run(ctx, func(ctx context.Context) error {
		repo := s.store.Repos.Users(s.store.DB)
		if _, err := repo.GetUserByLogin(ctx, username); err == nil {
			return common.ErrUsernameTaken
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		var cerr error
		user, cerr = repo.Create(ctx, &models.User{ID: id.String(), UserName: username, PasswordHash: digest})
		return cerr
	})
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			s.logger.Info(ctx, "registration rejected", "username", username, "reason", "taken")
			return nil, common.ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the id of the user when password matches. Unknown
// users and wrong passwords both yield common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, error) {
	var user *models.User
	err := s.store.run(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.store.Repos.Users(s.store.DB).GetUserByLogin(ctx, username)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify([]byte(password), s.dummyDigest)
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify([]byte(password), user.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}
	return user.ID, nil
}

// Login authenticates and, on success, returns a new TokenPair. Expired
// refresh tokens of the user are pruned on the way.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	userID, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if n, err := s.store.Repos.RefreshTokens(s.store.DB).DeleteExpired(ctx, userID, s.now()); err != nil {
		s.logger.Warn(ctx, "prune refresh tokens failed", "user_id", userID, "error", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "pruned refresh tokens", "user_id", userID, "count", n)
	}

	var pair *TokenPair
	err = s.store.run(ctx, func(ctx context.Context) error {
		var err error
		pair, err = s.generateTokenPair(ctx, userID, s.store.DB)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user logged in", "user_id", userID)
	return pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var token *models.RefreshToken
	err := s.store.run(ctx, func(ctx context.Context) error {
		var err error
		token, err = s.store.Repos.RefreshTokens(s.store.DB).Find(ctx, refreshToken)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = s.store.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.store.Repos.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var err error
		pair, err = s.generateTokenPair(ctx, token.UserID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// --- helpers below ---

func (s *UserService) generateTokenPair(ctx context.Context, userID string, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	err = s.store.Repos.RefreshTokens(db).Create(ctx, &models.RefreshToken{
		UserID:  userID,
		Token:   refresh,
		Expires: s.now().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
