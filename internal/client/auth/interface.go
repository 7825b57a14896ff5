package auth

import (
	"context"

	"github.com/yski/yski-client/internal/models"
	pkgapi "github.com/yski/yski-client/pkg/api"
)

// API - auth-эндпоинты backend'а, которые использует Service (api.Client).
// Вызываются без gateway: ошибка входа не должна запускать refresh.
type API interface {
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*models.UserProfile, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, accessToken string) (*models.UserProfile, error)
}
