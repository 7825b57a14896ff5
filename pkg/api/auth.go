// Package api описывает wire-формат backend'а YSKI (FastAPI, префикс /api/v1).
package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yski/yski-client/internal/models"
)

// LoginRequest - POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest - POST /auth/register
type RegisterRequest struct {
	Phone    *string `json:"phone,omitempty"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// RefreshRequest - POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse - ответ login/refresh
type TokenResponse struct {
	User         *models.UserProfile `json:"user,omitempty"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type,omitempty"`
	ExpiresIn    int64               `json:"expires_in"` // время жизни access token в секундах
}

// ErrorResponse - тело ошибки FastAPI: {"detail": "..."} или список ошибок валидации (422)
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
	Loc []any  `json:"loc"`
}

// Message сводит detail к одной строке
func (e *ErrorResponse) Message() string {
	if len(e.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(e.Detail, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
				continue
			}
			parts = append(parts, it.Msg)
		}
		return strings.Join(parts, "; ")
	}

	return string(e.Detail)
}
