package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yski/yski-client/pkg/api"
)

// Таксономия ошибок клиента; сравнивать через errors.Is
var (
	// ErrAuthExpired - backend отверг access token, и восстановление не помогло
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRefreshInvalid - refresh token отвергнут; сессия завершается
	ErrRefreshInvalid = errors.New("refresh token rejected")

	// ErrNetwork - транспортная ошибка; повторов нет
	ErrNetwork = errors.New("network error")

	// ErrInvalidCredentials - неверный email или пароль при входе
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized совпадает с любым *Error со статусом 401
	ErrUnauthorized = errors.New("unauthorized")
)

// Error - не-2xx ответ backend'а
type Error struct {
	Detail     string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Is позволяет писать errors.Is(err, ErrUnauthorized)
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// NewError строит *Error из статуса и тела ответа
func NewError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Detail) > 0 {
		e.Detail = errResp.Message()
		return e
	}

	if len(body) > 0 && len(body) <= 512 {
		e.Detail = string(body)
	}
	return e
}

// DetailOf возвращает detail backend'а из цепочки ошибок
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
