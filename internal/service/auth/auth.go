package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kokoleng91-netizen/shop-backend/internal/hash"
	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/mykafka"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
	"github.com/kokoleng91-netizen/shop-backend/internal/tokens"
)

var (
	ErrValidation         = errors.New("validation")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

type Service struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if username == "" || email == "" || len(password) < 6 {
		return nil, fmt.Errorf("%w: username, email and a password of 6+ chars are required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	role, err := s.Repo.GetRoleByName(ctx, models.RoleCustomer)
	if err != nil {
		l.Error("register_error", "reason", "customer role missing", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		RoleID:       role.ID,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			l.Warn("register_rejected", "reason", "email taken")
			return nil, ErrEmailTaken
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	}, user.ID)

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	role := models.RoleCustomer
	if user.IsAdmin() {
		role = models.RoleAdmin
	}

	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID, role, s.JWTSecret, accessExp)
	if err != nil {
		l.Error("login_error", "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refreshToken, err := tokens.SignRefreshToken(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		l.Error("login_error", "reason", "cannot sign refresh token", "error", err)
		return nil, err
	}

	if err := s.Repo.SaveRefreshToken(ctx, refreshToken, user.ID, refreshExp); err != nil {
		l.Error("login_error", "reason", "cannot persist refresh token", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	}, user.ID)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	stored, err := s.Repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	if stored.Revoked || time.Now().Unix() > stored.ExpiresAt {
		return nil, ErrInvalidRefresh
	}

	var userID uint
	if _, err := fmt.Sscan(claims.Subject, &userID); err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	if err := s.Repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	role := models.RoleCustomer
	if user.IsAdmin() {
		role = models.RoleAdmin
	}

	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID, role, s.JWTSecret, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	newRefresh, err := tokens.SignRefreshToken(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefreshToken(ctx, newRefresh, user.ID, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *Service) publish(ctx context.Context, event map[string]any, key uint) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicUserEvents, fmt.Sprint(key), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
