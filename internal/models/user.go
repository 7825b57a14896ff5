package models

import (
	"fmt"
	"time"
)

// UserProfile представляет профиль пользователя, возвращаемый backend'ом (GET /users/me)
type UserProfile struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	ID          string     `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"is_active"`
}

// Clone возвращает глубокую копию профиля.
// Профиль заменяется целиком и никогда не мутирует частично, поэтому наружу отдаются копии.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	c.UpdatedAt = clonePtr(u.UpdatedAt)
	c.LastLoginAt = clonePtr(u.LastLoginAt)
	c.Phone = clonePtr(u.Phone)
	c.AvatarURL = clonePtr(u.AvatarURL)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String используется в логах, email не выводится
func (u *UserProfile) String() string {
	if u == nil {
		return "<nil>"
	}
	return fmt.Sprintf("user(%s, %s)", u.ID, u.Role)
}
