package service

import (
	"context"       // Request scoped context
	"crypto/sha256" // Reset token digests
	"encoding/hex"  // Digest encoding
	"errors"        // Error inspection
	"fmt"           // Error wrapping
	"strings"       // Input trimming
	"time"          // Reset token expiry

	"rental_system/internal/domain" // Importing domain models
	"rental_system/internal/notify" // Message templates
	"rental_system/internal/utils"  // JWT helpers

	"github.com/google/uuid"     // UUID identifiers
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = 10 * time.Minute

// Password length bounds; bcrypt ignores anything past 72 bytes
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

// Registration is a self-service sign up
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role // owner or tenant, tenant when empty
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLen || len(pw) > MaxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d characters", domain.ErrValidation, MinPasswordLen, MaxPasswordLen)
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register creates an owner or tenant account and signs it in
func (s *Service) Register(ctx context.Context, in Registration) (*domain.User, string, error) {
	if in.Role == "" {
		in.Role = domain.RoleTenant
	}
	if in.Role != domain.RoleOwner && in.Role != domain.RoleTenant {
		return nil, "", fmt.Errorf("%w: role must be owner or tenant", domain.ErrValidation)
	}
	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, "", err
	}
	token, err := utils.GenerateJWT(user.ID.String(), string(user.Role), s.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// CreateAdmin provisions an administrator; there is no self-service path to this role
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.createUser(ctx, Registration{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
}

func (s *Service) createUser(ctx context.Context, in Registration) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := domain.User{Name: name, Email: email, Password: string(hash), Role: in.Role}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, conflictOnDuplicate(err, "email already registered")
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	s.invalidateUsers(ctx)
	return &user, nil
}

// Login checks credentials and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", domain.ErrUnauthorized
	}
	token, err := utils.GenerateJWT(user.ID.String(), string(user.Role), s.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Me returns the caller with their current lease and its property
func (s *Service) Me(ctx context.Context, actor Actor) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Preload("CurrentLease.Property").First(&user, "id = ?", actor.ID).Error; err != nil {
		return nil, missing(err, domain.ErrNotFound, "user")
	}
	return &user, nil
}

// Role returns the stored role of a user
func (s *Service) Role(ctx context.Context, id uuid.UUID) (domain.Role, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Select("id", "role").First(&user, "id = ?", id).Error; err != nil {
		return "", missing(err, domain.ErrUnauthorized, "user")
	}
	return user.Role, nil
}

// ForgotPassword mails a single use reset link valid for ResetTokenTTL
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return missing(err, domain.ErrNotFound, "user")
	}
	token, err := randomToken(32)
	if err != nil {
		return err
	}
	expires := s.now().Add(ResetTokenTTL)
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_token_hash": hashResetToken(token),
		"reset_expires_at": expires,
	}).Error; err != nil {
		return err
	}

	link := strings.TrimRight(s.frontendURL, "/") + "/reset-password/" + token
	s.notifyAsync(message{to: user.Email, subject: notify.PasswordResetSubject, body: notify.PasswordResetBody(link)})
	logrus.WithField("user_id", user.ID).Info("Password reset requested")
	return nil
}

// ResetPassword sets a new password for the holder of a live reset token
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	var user domain.User
	err := s.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_expires_at > ?", hashResetToken(strings.TrimSpace(token)), s.now()).
		First(&user).Error
	if err != nil {
		return missing(err, domain.ErrValidation, "invalid or expired reset token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password":         string(hash),
		"reset_token_hash": "",
		"reset_expires_at": nil,
	}).Error; err != nil {
		return err
	}
	logrus.WithField("user_id", user.ID).Info("Password reset")
	return nil
}

// UploadAvatar replaces the caller's avatar image
func (s *Service) UploadAvatar(ctx context.Context, actor Actor, file Upload) (*domain.User, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: avatar file is required", domain.ErrValidation)
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", actor.ID).Error; err != nil {
		return nil, missing(err, domain.ErrNotFound, "user")
	}
	paths, err := s.storeFiles(ctx, s.avatars, []Upload{file})
	if err != nil {
		return nil, err
	}
	previous := user.Avatar
	if err := s.db.WithContext(ctx).Model(&user).Update("avatar", paths[0]).Error; err != nil {
		s.releaseFiles(ctx, s.avatars, paths)
		return nil, err
	}
	user.Avatar = paths[0]
	if previous != "" {
		s.releaseFiles(ctx, s.avatars, []string{previous})
	}
	return &user, nil
}

// ListUsers pages through every account for administrators
func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit = pageBounds(page, limit)
	users := []domain.User{}
	err := s.db.WithContext(ctx).Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	return users, total, err
}
