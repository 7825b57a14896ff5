// Package session хранит состояние аутентификации клиента (TokenStore):
// профиль пользователя и пару токенов, переживающие перезапуск.
package session

import (
	"errors"

	"github.com/yski/yski-client/internal/models"
)

var (
	// ErrNoSession - в хранилище нет сохраненной сессии
	ErrNoSession = errors.New("no persisted session")

	// ErrNotAuthenticated - операция требует активной сессии
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrIncompleteSession - SetAuth без профиля или access token'а
	ErrIncompleteSession = errors.New("session requires user and access token")

	// ErrSnapshotVersion - снимок записан более новой версией клиента
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// Session - состояние аутентификации.
// Инвариант: IsAuthenticated == (AccessToken != "" && User != nil).
type Session struct {
	User            *models.UserProfile
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
}

// normalize пересчитывает IsAuthenticated из инварианта
func (s Session) normalize() Session {
	s.IsAuthenticated = s.AccessToken != "" && s.User != nil
	return s
}

// clone возвращает копию без общих указателей
func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}
