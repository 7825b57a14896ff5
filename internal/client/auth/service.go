// Package auth - сценарии входа, регистрации и выхода поверх api.Client и session.Store
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/client/session"
	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/token"
	"github.com/yski/yski-client/internal/validation"
	pkgapi "github.com/yski/yski-client/pkg/api"
)

// Service предоставляет функции авторизации для одной поверхности
type Service struct {
	api       API
	store     *session.Store
	validator *validation.Validator
	logger    *slog.Logger
	surface   models.Surface
}

// NewService создает новый сервис авторизации
func NewService(api API, store *session.Store, surface models.Surface, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:       api,
		store:     store,
		surface:   surface,
		validator: validation.New(),
		logger:    logger,
	}
}

// Login выполняет вход.
// Роль из токена проверяется до сохранения сессии: при отказе возвращается
// authz.ErrAuthorizationDenied и сессия не создается.
func (s *Service) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	form := validation.LoginForm{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Check(form); err != nil {
		return nil, err
	}

	resp, err := s.api.Login(ctx, pkgapi.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		return nil, err
	}

	claims, err := token.ParseUnverified(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if !s.surface.Allows(claims.Role) {
		s.logger.InfoContext(ctx, "login rejected: role not allowed",
			"surface", s.surface,
			"role", claims.Role,
		)
		return nil, fmt.Errorf("%w: role %q on %s", authz.ErrAuthorizationDenied, claims.Role, s.surface)
	}

	user := resp.User
	if user == nil {
		user, err = s.api.Me(ctx, resp.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.SetAuth(ctx, user, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return user.Clone(), nil
}

// Register создает аккаунт и сразу выполняет вход с теми же данными
func (s *Service) Register(ctx context.Context, form validation.RegisterForm) (*models.UserProfile, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.FullName = strings.TrimSpace(form.FullName)
	if err := s.validator.Check(form); err != nil {
		return nil, err
	}

	req := pkgapi.RegisterRequest{
		FullName: form.FullName,
		Email:    form.Email,
		Password: form.Password,
	}
	if phone := strings.TrimSpace(form.Phone); phone != "" {
		req.Phone = &phone
	}

	if _, err := s.api.Register(ctx, req); err != nil {
		return nil, err
	}

	return s.Login(ctx, form.Email, form.Password)
}

// Logout уведомляет backend (best effort) и всегда очищает локальную сессию
func (s *Service) Logout(ctx context.Context) error {
	if access := s.store.AccessToken(); access != "" {
		if err := s.api.Logout(ctx, access); err != nil {
			// Не прерываем процесс, если сервер недоступен
			s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
		}
	}

	if err := s.store.ClearAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}
	return nil
}

// Store возвращает хранилище сессии сервиса
func (s *Service) Store() *session.Store {
	return s.store
}
