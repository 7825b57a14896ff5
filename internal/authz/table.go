package authz

import "github.com/yski/yski-client/internal/models"

// Action - действие над ресурсом
type Action string

const (
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionApprove     Action = "approve"
	ActionPublish     Action = "publish"
	ActionVerify      Action = "verify"
	ActionChangeRole  Action = "change_role"
	ActionDeactivate  Action = "deactivate"
	ActionApproveBid  Action = "approve_bid"
	ActionApproveLoan Action = "approve_loan"
	ActionAssign      Action = "assign"
	// ActionManage - грубое действие мобильных экранов
	ActionManage Action = "manage"
)

// Resource - ресурс (для мобильной поверхности - экран)
type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceContent   Resource = "content"
	ResourceDonations Resource = "donations"
	ResourceAuctions  Resource = "auctions"
	ResourceBookings  Resource = "bookings"
	ResourceEquipment Resource = "equipment"
	ResourceFinance   Resource = "finance"

	ResourceHome          Resource = "home"
	ResourcePickups       Resource = "pickups"
	ResourceNotifications Resource = "notifications"
	ResourceProfile       Resource = "profile"
	ResourceAdmin         Resource = "admin"
)

// Table - статическая таблица role -> resource -> actions
type Table map[models.Role]map[Resource][]Action

// allows - чистая функция поиска в таблице
func (t Table) allows(role models.Role, action Action, resource Resource) bool {
	for _, a := range t[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// DashboardTable - права staff в web dashboard
var DashboardTable = Table{
	models.RoleAdmin: {
		ResourceUsers:     {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionChangeRole, ActionDeactivate},
		ResourceContent:   {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove, ActionPublish},
		ResourceDonations: {ActionView, ActionVerify},
		ResourceAuctions:  {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApproveBid},
		ResourceBookings:  {ActionView, ActionApprove, ActionAssign},
		ResourceEquipment: {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApproveLoan},
		ResourceFinance:   {ActionView, ActionCreate, ActionEdit, ActionPublish},
	},
	models.RolePengurus: {
		ResourceUsers:     {ActionView},
		ResourceContent:   {ActionView, ActionCreate, ActionEdit, ActionApprove, ActionPublish},
		ResourceDonations: {ActionView, ActionVerify},
		ResourceAuctions:  {ActionView, ActionApproveBid},
		ResourceBookings:  {ActionView, ActionApprove, ActionAssign},
		ResourceEquipment: {ActionView, ActionApproveLoan},
		ResourceFinance:   {ActionView},
	},
}

// базовые экраны, доступные всем ролям мобильного приложения
func mobileBase() map[Resource][]Action {
	return map[Resource][]Action{
		ResourceHome:          {ActionView},
		ResourceDonations:     {ActionView},
		ResourceBookings:      {ActionView},
		ResourceEquipment:     {ActionView},
		ResourceAuctions:      {ActionView},
		ResourcePickups:       {ActionView},
		ResourceNotifications: {ActionView},
		ResourceProfile:       {ActionView},
	}
}

func staffScreens() map[Resource][]Action {
	m := mobileBase()
	m[ResourceFinance] = []Action{ActionView}
	m[ResourceContent] = []Action{ActionManage}
	m[ResourceAuctions] = []Action{ActionView, ActionManage}
	return m
}

func adminScreens() map[Resource][]Action {
	m := staffScreens()
	m[ResourceAdmin] = []Action{ActionView}
	return m
}

// MobileTable - экранные гейты мобильного приложения
var MobileTable = Table{
	models.RoleAdmin:    adminScreens(),
	models.RolePengurus: staffScreens(),
	models.RoleRelawan:  mobileBase(),
	models.RoleSahabat:  mobileBase(),
}

// TableFor возвращает таблицу прав для поверхности
func TableFor(s models.Surface) Table {
	switch s {
	case models.SurfaceDashboard:
		return DashboardTable
	case models.SurfaceMobile:
		return MobileTable
	}
	return Table{}
}

// DashboardResources - порядок разделов меню dashboard
var DashboardResources = []Resource{
	ResourceUsers, ResourceContent, ResourceDonations, ResourceAuctions,
	ResourceBookings, ResourceEquipment, ResourceFinance,
}

// MobileScreens - порядок экранов мобильного приложения
var MobileScreens = []Resource{
	ResourceHome, ResourceDonations, ResourceBookings, ResourceEquipment,
	ResourceAuctions, ResourcePickups, ResourceNotifications, ResourceProfile,
	ResourceFinance, ResourceContent, ResourceAdmin,
}

// OrderFor возвращает порядок ресурсов поверхности
func OrderFor(s models.Surface) []Resource {
	switch s {
	case models.SurfaceDashboard:
		return DashboardResources
	case models.SurfaceMobile:
		return MobileScreens
	}
	return nil
}
