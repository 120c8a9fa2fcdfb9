// Package services contains server-side business logic. This file implements
// UserService, which registers administrators and checks their credentials.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/cryptox"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
)

// MinPasswordLength is enforced on registration only.
const MinPasswordLength = 8

var userNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,31}$`)

// UserService provides authentication-related operations:
// - Register: create administrators
// - Authenticate: verify credentials
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	loginDomain string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		loginDomain: strings.ToLower(cfg.LoginDomain),
	}
}

// Register creates a new administrator with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = s.NormalizeLogin(username)
	if !userNamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: user name must be 2-32 characters of a-z, 0-9, '.', '_' or '-'", common.ErrorValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash, err := cryptox.HashPassword(pw)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", common.ErrorValidation)
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return u, nil
}

// Authenticate checks login and password. login may be the bare user name or
// the user name followed by "@" and the configured login domain. Unknown
// users and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, s.NormalizeLogin(login))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnCompare(pw)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !cryptox.CheckPassword(user.PasswordHash, pw) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// NormalizeLogin lower-cases login and strips the login domain suffix.
func (s *UserService) NormalizeLogin(login string) string {
	login = strings.ToLower(strings.TrimSpace(login))
	if s.loginDomain != "" {
		login = strings.TrimSuffix(login, "@"+s.loginDomain)
	}
	return login
}
