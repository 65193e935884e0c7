// Package accounts owns user lifecycle and credential verification.
package accounts

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbacadmin/internal/models"
	"rbacadmin/internal/password"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
	// ErrDisabled means the account exists but is_active is false.
	ErrDisabled = errors.New("account disabled")
	// ErrNotStaff means the account may not log into the admin backend.
	ErrNotStaff = errors.New("account not allowed to access the backend")
	// ErrSuperuserImmutable guards superuser accounts against password
	// resets and deactivation through the admin surface.
	ErrSuperuserImmutable = errors.New("operation not allowed on superuser accounts")
	ErrUsernameTaken      = errors.New("username already exists")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate validates a username/password pair. Checks run in fixed
// order: existence, password, is_active, is_staff. Each failure is its
// own error value. Authentication itself is read-only; the caller bumps
// last_login on success.
func (s *Service) Authenticate(ctx context.Context, username, plain string) (*models.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !password.Verify(plain, u.Password) {
		return nil, ErrWrongPassword
	}
	if !u.IsActive {
		return nil, ErrDisabled
	}
	if !u.IsStaff {
		return nil, ErrNotStaff
	}
	return u, nil
}

// TouchLastLogin sets last_login to now, truncated to seconds so the value
// round-trips through token payloads exactly. Any bump invalidates all
// previously issued tokens for the account.
func (s *Service) TouchLastLogin(ctx context.Context, u *models.User) error {
	now := time.Now().Truncate(time.Second)
	if err := s.db.WithContext(ctx).Model(u).Update("last_login", now).Error; err != nil {
		return err
	}
	u.LastLogin = &now
	return nil
}

// CreateInput is the field set accepted when creating a user.
type CreateInput struct {
	Username    string
	Password    string
	Nickname    string
	IsStaff     bool
	IsSuperuser bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	digest, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:    in.Username,
		Password:    digest,
		Nickname:    in.Nickname,
		IsActive:    true,
		IsStaff:     in.IsStaff,
		IsSuperuser: in.IsSuperuser,
	}
	err = s.db.WithContext(ctx).Create(&u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetPassword replaces the stored digest. Superuser passwords cannot be
// reset through the admin surface.
func (s *Service) ResetPassword(ctx context.Context, u *models.User, plain string) error {
	if u.IsSuperuser {
		return ErrSuperuserImmutable
	}
	digest, err := password.Hash(plain)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password", digest).Error; err != nil {
		return err
	}
	u.Password = digest
	return nil
}

// SetActive enables or disables an account. Superusers cannot be disabled.
func (s *Service) SetActive(ctx context.Context, u *models.User, active bool) error {
	if !active && u.IsSuperuser {
		return ErrSuperuserImmutable
	}
	if err := s.db.WithContext(ctx).Model(u).Update("is_active", active).Error; err != nil {
		return err
	}
	u.IsActive = active
	return nil
}
