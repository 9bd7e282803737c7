package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesapos/internal/hash"
	"github.com/mesapos/mesapos/internal/logging"
	"github.com/mesapos/mesapos/internal/models"
	"github.com/mesapos/mesapos/internal/repo"
	"github.com/mesapos/mesapos/internal/tokens"
	"github.com/mesapos/mesapos/internal/transport"
)

const accessTokenTTL = 12 * time.Hour

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

var validRoles = map[models.Role]bool{
	models.RoleAdmin: true, models.RoleSupervisor: true, models.RoleWaiter: true,
	models.RoleKitchen: true, models.RoleBar: true, models.RoleCashier: true,
}

// Register creates a staff account inside the caller's business.
func (s *AuthService) Register(ctx context.Context, businessID uuid.UUID, req transport.RegisterUserRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}
	role := models.Role(req.Role)
	if !validRoles[role] {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		BusinessID:   businessID,
		Username:     req.Username,
		PasswordHash: pwHash,
		Role:         role,
		Pin:          req.Pin,
		Active:       true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username taken", ErrConflict)
		}
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks credentials and issues the HS256 token carrying the
// (user, business, role) triple.
func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", req.Username)

	if req.Username == "" || req.Password == "" || req.BusinessID == uuid.Nil {
		return nil, fmt.Errorf("%w: business_id, username and password required", ErrValidation)
	}
	user, err := s.Repo.FindUserByUsername(ctx, req.BusinessID, req.Username)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrValidation)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "bad credentials")
		return nil, fmt.Errorf("%w: invalid username or password", ErrValidation)
	}

	exp := time.Now().UTC().Add(accessTokenTTL)
	token, err := tokens.NewAccessToken(s.JWTSecret,
		user.ID.String(), user.BusinessID.String(), string(user.Role), exp)
	if err != nil {
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{AccessToken: token, ExpiresAt: exp, User: user}, nil
}
