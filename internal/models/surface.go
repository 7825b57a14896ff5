package models

// Surface - клиентская поверхность (мобильное приложение или web dashboard)
type Surface string

const (
	SurfaceMobile    Surface = "mobile"
	SurfaceDashboard Surface = "dashboard"
)

// AllowedRoles возвращает роли, которым разрешен вход на поверхность.
// Единый источник для authz и edge.
func (s Surface) AllowedRoles() []Role {
	switch s {
	case SurfaceDashboard:
		return []Role{RoleAdmin, RolePengurus}
	case SurfaceMobile:
		return []Role{RoleAdmin, RolePengurus, RoleRelawan, RoleSahabat}
	}
	return nil
}

// Allows проверяет, допускается ли роль на поверхность
func (s Surface) Allows(r Role) bool {
	for _, allowed := range s.AllowedRoles() {
		if allowed == r {
			return true
		}
	}
	return false
}
