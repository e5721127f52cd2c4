// Package services contains the server-side business logic. UserService
// handles signup, login and profile maintenance; TaskService and
// AttachmentService enforce task ownership; Guard resolves bearer tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskline/internal/common"
	"github.com/dmitrijs2005/taskline/internal/dbx"
	"github.com/dmitrijs2005/taskline/internal/server/auth"
	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/models"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
)

// UserService provides identity operations. Plaintext passwords are hashed
// here and never reach a repository or a log line.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService. db may be nil for the in-memory
// backend.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates an ordinary account: active, never privileged, whatever
// the payload says.
func (s *UserService) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	in.IsActive = true
	in.IsSuperuser = false
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in models.UserCreate) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", common.ErrorInternal)
	}

	user := &models.User{
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hash,
		IsActive:       in.IsActive,
		IsSuperuser:    in.IsSuperuser,
	}

	var created *models.User
	err = dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, in.Email)
		if err == nil {
			return common.ErrorConflict
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		created, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created, nil
}

// Authenticate returns the user whose email and password match, or nil when
// either does not. Unknown emails still pay for one bcrypt comparison.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck(password)
			return nil, nil
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !auth.CheckPassword(user.HashedPassword, password) {
		return nil, nil
	}
	return user, nil
}

// Login verifies the credentials and issues an access token. Wrong
// credentials yield ErrorUnauthorized; an inactive account ErrorForbidden.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("incorrect email or password: %w", common.ErrorUnauthorized)
	}
	if !user.IsActive {
		return "", fmt.Errorf("inactive user: %w", common.ErrorForbidden)
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", common.ErrorInternal)
	}
	return token, nil
}

// GetUser returns the user with the given id to the user themself or to a
// superuser.
func (s *UserService) GetUser(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if err := RequireSelfOrPrivileged(actor, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateMe applies a partial update to the acting user's own profile.
func (s *UserService) UpdateMe(ctx context.Context, actor *models.User, in models.UserUpdate) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	patch := models.UserPatch{Email: in.Email, FullName: in.FullName}
	if in.Password.Present() {
		hash, err := auth.HashPassword(in.Password.Value)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", common.ErrorInternal)
		}
		patch.HashedPassword = models.Some(hash)
	}

	var updated *models.User
	err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if patch.Email.Present() && patch.Email.Value != actor.Email {
			other, err := repo.GetByEmail(ctx, patch.Email.Value)
			switch {
			case err == nil && other.ID != actor.ID:
				return common.ErrorConflict
			case err != nil && !errors.Is(err, common.ErrorNotFound):
				return err
			}
		}

		var err error
		updated, err = repo.Update(ctx, actor.ID, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return updated, nil
}

// EnsureSuperuser creates an active superuser with the given credentials
// unless the email is already registered. The existing account is returned
// untouched in that case.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) (*models.User, bool, error) {
	existing, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, fmt.Errorf("error searching user: %w", err)
	}

	user, err := s.create(ctx, models.UserCreate{
		Email:       email,
		Password:    password,
		IsActive:    true,
		IsSuperuser: true,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// ListUsers returns one window of all users and the total count.
func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]*models.User, int, error) {
	if err := common.ValidateWindow(skip, limit); err != nil {
		return nil, 0, err
	}
	items, total, err := s.repomanager.Users(s.db).List(ctx, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	return items, total, nil
}

// DeleteUser removes a user and, through the store, all of their tasks.
// It is an operator action with no HTTP route.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}

