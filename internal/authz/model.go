// Package authz содержит ролевую модель возможностей.
//
// Проверки здесь рекомендательные (показать/скрыть действие в UI). Backend
// остается единственным источником истины для авторизации.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/yski/yski-client/internal/models"
)

// ErrAuthorizationDenied - роль не имеет права на действие
var ErrAuthorizationDenied = errors.New("authorization denied")

// UserSource отдает текущего пользователя (обычно session.Store).
// Профиль без активной сессии (нет access token'а) прав не дает.
type UserSource interface {
	User() *models.UserProfile
	IsAuthenticated() bool
}

// Model вычисляет Can для текущего пользователя сессии
type Model struct {
	users UserSource
	table Table
}

// NewModel создает модель для таблицы и источника пользователя
func NewModel(table Table, users UserSource) *Model {
	return &Model{table: table, users: users}
}

// Can - fail-closed предикат: false без пользователя, для неизвестной роли,
// неизвестного ресурса или действия.
func (m *Model) Can(action Action, resource Resource) bool {
	return m.table.Can(m.current(), action, resource)
}

// current возвращает пользователя только для аутентифицированной сессии
func (m *Model) current() *models.UserProfile {
	if m == nil || m.users == nil || !m.users.IsAuthenticated() {
		return nil
	}
	return m.users.User()
}

// Can проверяет право пользователя по таблице
func (t Table) Can(user *models.UserProfile, action Action, resource Resource) bool {
	if user == nil || !user.Role.Valid() {
		return false
	}
	return t.allows(user.Role, action, resource)
}

// Require возвращает ErrAuthorizationDenied, если действие недоступно
func (m *Model) Require(_ context.Context, action Action, resource Resource) error {
	if !m.Can(action, resource) {
		return fmt.Errorf("%w: %s on %s", ErrAuthorizationDenied, action, resource)
	}
	return nil
}

// Actions перечисляет разрешенные действия над ресурсом в порядке таблицы
func (m *Model) Actions(resource Resource) []Action {
	user := m.current()
	if user == nil || !user.Role.Valid() {
		return nil
	}
	granted := m.table[user.Role][resource]
	out := make([]Action, len(granted))
	copy(out, granted)
	return out
}

// Resources перечисляет ресурсы, на которые у текущей роли есть хоть одно право
func (m *Model) Resources(order []Resource) []Resource {
	var out []Resource
	for _, r := range order {
		if len(m.Actions(r)) > 0 {
			out = append(out, r)
		}
	}
	return out
}
