// Package services holds the authentication core: registration, login and
// profile lookup on top of the credential store, the password hasher and the
// token issuer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// ErrBadCredentials is returned by Login for an unknown user and for a wrong
// password alike.
var ErrBadCredentials = fmt.Errorf("%w: username/password is incorrect", common.ErrorUnauthorized)

// dummyPassword is hashed once at startup; Login verifies against that hash
// when the user does not exist.
const dummyPassword = "gophauth-dummy-password"

// TokenIssuer mints and verifies bearer tokens.
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
	Verify(token string) (string, error)
}

// LoginResult is what a successful Login hands back.
type LoginResult struct {
	Token string
	User  *models.User
}

type UserService struct {
	repo      users.Repository
	hasher    auth.PasswordHasher
	issuer    TokenIssuer
	logger    logging.Logger
	dummyHash string
	now       func() time.Time
}

func NewUserService(repo users.Repository, hasher auth.PasswordHasher, issuer TokenIssuer, logger logging.Logger) (*UserService, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.In("users").Code("DUMMY_HASH_FAILED").Wrap(err)
	}

	return &UserService{
		repo:      repo,
		hasher:    hasher,
		issuer:    issuer,
		logger:    logger,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

func validateCredentials(username, password string) error {
	if username == "" {
		return common.Required("username")
	}
	if password == "" {
		return common.Required("password")
	}
	return nil
}

// storeError keeps known sentinels and turns anything else coming out of the
// repository into ErrStoreUnavailable.
func storeError(err error, code string) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrStoreUnavailable):
		return err
	}
	return oops.In("users").Code(code).Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
}

func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	_, err := s.repo.GetUserByLogin(ctx, username)
	switch {
	case err == nil:
		return nil, oops.In("users").Code("USER_ALREADY_EXISTS").With("username", username).Wrap(common.ErrConflict)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storeError(err, "REGISTER_LOOKUP_FAILED")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, storeError(err, "REGISTER_CREATE_FAILED")
	}

	return created, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByLogin(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, storeError(err, "LOGIN_LOOKUP_FAILED")
		}
		// same hashing cost as a real mismatch
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, ErrBadCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.In("users").Code("LOGIN_VERIFY_FAILED").With("user_id", user.ID).Wrap(err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, oops.In("users").Code("TOKEN_ISSUE_FAILED").Wrap(fmt.Errorf("%w: %w", common.ErrorInternal, err))
	}

	s.upgradeHash(ctx, user, password)

	return &LoginResult{Token: token, User: user}, nil
}

// upgradeHash re-hashes the password with the configured parameters. Failures
// are logged and otherwise ignored.
func (s *UserService) upgradeHash(ctx context.Context, user *models.User, password string) {
	if !s.hasher.NeedsUpgrade(user.PasswordHash) {
		return
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		logging.LogError(ctx, s.logger, "password rehash failed", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		logging.LogError(ctx, s.logger, "password hash upgrade failed", err)
		return
	}

	user.PasswordHash = hash
	s.logger.Info(ctx, "password hash upgraded", "user_id", user.ID)
}

func (s *UserService) Profile(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	// ids are minted as UUIDs; anything else cannot name a user
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "PROFILE_LOOKUP_FAILED")
	}

	return user, nil
}
