package models

import (
	"encoding/json"
	"fmt"
)

// Role - закрытый набор ролей организации
type Role string

const (
	RoleAdmin    Role = "admin"
	RolePengurus Role = "pengurus" // управляющий
	RoleRelawan  Role = "relawan"  // волонтер
	RoleSahabat  Role = "sahabat"  // бенефициар / донор
)

// Roles перечисляет все известные роли
var Roles = []Role{RoleAdmin, RolePengurus, RoleRelawan, RoleSahabat}

// Valid сообщает, входит ли роль в закрытый набор
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePengurus, RoleRelawan, RoleSahabat:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole разбирает строку в Role. Неизвестные значения - ошибка.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// UnmarshalJSON не отвергает неизвестные роли: профиль с ними остается читаемым,
// а проверки прав для такой роли просто возвращают false.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	*r = Role(s)
	return nil
}
