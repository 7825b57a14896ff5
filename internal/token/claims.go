// Package token декодирует claims access token'а без проверки подписи.
//
// Это НЕ граница доверия: клиент не знает ключа подписи, и любой может
// подложить токен с произвольной ролью. Результат используется только для UX
// (редирект на логин, скрытие кнопок, clamp времени жизни cookie). Backend
// проверяет подпись на каждом вызове API.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yski/yski-client/internal/models"
)

// ErrMalformed - токен не является JWT из трех base64url сегментов с JSON внутри
var ErrMalformed = errors.New("malformed token")

// Claims - payload access token'а backend'а
type Claims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	Type  string      `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// UnmarshalJSON читает role мягко: не-строковое значение дает пустую роль,
// а не ошибку разбора. Пустая роль не допущена ни на одну поверхность.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type plain Claims
	aux := struct {
		*plain
		Role json.RawMessage `json:"role"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Role = ""
	var role string
	if err := json.Unmarshal(aux.Role, &role); err == nil {
		c.Role = models.Role(role)
	}
	return nil
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// ParseUnverified разбирает токен без проверки подписи и срока действия
func ParseUnverified(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// Expiry возвращает момент истечения; false если claim exp отсутствует
func (c *Claims) Expiry() (time.Time, bool) {
	if c == nil || c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.RegisteredClaims.ExpiresAt.Time, true
}

// Remaining - сколько осталось жить токену относительно now (может быть отрицательным)
func (c *Claims) Remaining(now time.Time) (time.Duration, bool) {
	exp, ok := c.Expiry()
	if !ok {
		return 0, false
	}
	return exp.Sub(now), true
}

// ExpiresWithin сообщает, истекает ли токен в течение lead.
// Токен без exp считается неистекающим.
func (c *Claims) ExpiresWithin(now time.Time, lead time.Duration) bool {
	left, ok := c.Remaining(now)
	if !ok {
		return false
	}
	return left <= lead
}
