package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/internal/platform/mail"
	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/tool"
	"github.com/bottlemart/backend/pkg/types"
)

const resetTokenTTL = 15 * time.Minute

type Service struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	db     *gorm.DB
	mailer mail.Mailer
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, mailer mail.Mailer) *Service {
	return &Service{cfg: cfg, log: log, db: db, mailer: mailer}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     types.UserRole
}

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := in.Role
	if role == "" {
		role = types.UserRoleBuyer
	}
	if !role.Valid() || role == types.UserRoleAdmin {
		// Admin accounts are provisioned out of band.
		role = types.UserRoleBuyer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		ID:           tool.GenerateUUIDV7(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("user_registered", "user_id", u.ID, "role", u.Role)
	return &AuthResult{User: u, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(&u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: &u, Token: token}, nil
}

func (s *Service) issueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.Auth.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and extracts the principal.
func (s *Service) ParseToken(tokenString string) (*types.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	return &types.Principal{UserID: sub, Role: types.UserRole(role)}, nil
}

func (s *Service) GetUser(ctx context.Context, userID string, requester types.Principal) (*models.User, error) {
	if !requester.CanAccess(userID) {
		return nil, ErrForbidden
	}
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) ListUsers(ctx context.Context, requester types.Principal) ([]*models.User, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	var users []*models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string, requester types.Principal) error {
	if !requester.IsAdmin() {
		return ErrForbidden
	}
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) UpdateRole(ctx context.Context, userID string, role types.UserRole, requester types.Principal) (*models.User, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = role
	if err := s.db.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("user_role_updated",
		"user_id", u.ID, "role", role, "operator_id", requester.UserID)
	return &u, nil
}

// ForgotPassword issues a single-use reset token and mails it. It reports
// success even for unknown addresses so attackers cannot enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	pr := &models.PasswordReset{
		ID:        tool.GenerateUUIDV7(),
		UserID:    u.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(pr).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", s.cfg.ResetURLBase, token)
	err = s.mailer.Send(ctx, mail.Email{
		To:      u.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf("Hi %s,\r\n\r\nUse the link below to reset your password. It expires in %d minutes.\r\n\r\n%s\r\n",
			u.Name, int(resetTokenTTL.Minutes()), link),
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("reset_mail_failed", "user_id", u.ID, "error", err)
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pr models.PasswordReset
		err := tx.Where("token_hash = ?", hashToken(token)).First(&pr).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if pr.UsedAt != nil || time.Now().After(pr.ExpiresAt) {
			return ErrInvalidToken
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", pr.UserID).
			Update("password_hash", string(hash)).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&pr).Update("used_at", &now).Error
	})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
