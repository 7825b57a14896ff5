package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yski/yski-client/internal/models"
)

type staticUser struct {
	user      *models.UserProfile
	loggedOut bool
}

func (s staticUser) User() *models.UserProfile { return s.user }

func (s staticUser) IsAuthenticated() bool { return s.user != nil && !s.loggedOut }

func withRole(r models.Role) staticUser {
	return staticUser{user: &models.UserProfile{ID: "u1", Role: r}}
}

func TestModel_Can_Dashboard(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		action   Action
		resource Resource
		want     bool
	}{
		{name: "admin deletes users", role: models.RoleAdmin, action: ActionDelete, resource: ResourceUsers, want: true},
		{name: "admin changes role", role: models.RoleAdmin, action: ActionChangeRole, resource: ResourceUsers, want: true},
		{name: "pengurus views users", role: models.RolePengurus, action: ActionView, resource: ResourceUsers, want: true},
		{name: "pengurus cannot delete users", role: models.RolePengurus, action: ActionDelete, resource: ResourceUsers, want: false},
		{name: "pengurus verifies donations", role: models.RolePengurus, action: ActionVerify, resource: ResourceDonations, want: true},
		{name: "pengurus approves loan", role: models.RolePengurus, action: ActionApproveLoan, resource: ResourceEquipment, want: true},
		{name: "pengurus cannot create finance", role: models.RolePengurus, action: ActionCreate, resource: ResourceFinance, want: false},
		{name: "relawan has no dashboard rights", role: models.RoleRelawan, action: ActionView, resource: ResourceContent, want: false},
		{name: "sahabat has no dashboard rights", role: models.RoleSahabat, action: ActionView, resource: ResourceDonations, want: false},
		{name: "unknown role", role: models.Role("superadmin"), action: ActionView, resource: ResourceUsers, want: false},
		{name: "unknown resource", role: models.RoleAdmin, action: ActionView, resource: Resource("reports"), want: false},
		{name: "unknown action", role: models.RoleAdmin, action: Action("export"), resource: ResourceUsers, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(DashboardTable, withRole(tt.role))
			assert.Equal(t, tt.want, m.Can(tt.action, tt.resource))
			// чистая функция: повторный вызов дает тот же результат
			assert.Equal(t, tt.want, m.Can(tt.action, tt.resource))
		})
	}
}

func TestModel_Can_Mobile(t *testing.T) {
	for _, r := range models.Roles {
		m := NewModel(MobileTable, withRole(r))
		assert.True(t, m.Can(ActionView, ResourceHome), r)
		assert.True(t, m.Can(ActionView, ResourceDonations), r)
	}

	sahabat := NewModel(MobileTable, withRole(models.RoleSahabat))
	assert.False(t, sahabat.Can(ActionView, ResourceFinance))
	assert.False(t, sahabat.Can(ActionManage, ResourceContent))

	pengurus := NewModel(MobileTable, withRole(models.RolePengurus))
	assert.True(t, pengurus.Can(ActionView, ResourceFinance))
	assert.True(t, pengurus.Can(ActionManage, ResourceAuctions))
	assert.False(t, pengurus.Can(ActionView, ResourceAdmin))

	admin := NewModel(MobileTable, withRole(models.RoleAdmin))
	assert.True(t, admin.Can(ActionView, ResourceAdmin))
}

func TestModel_Can_NoUser(t *testing.T) {
	var nilModel *Model
	noSource := NewModel(DashboardTable, nil)
	noUser := NewModel(DashboardTable, staticUser{})
	// профиль остался, access token'а нет
	profileOnly := NewModel(DashboardTable, staticUser{
		user:      &models.UserProfile{ID: "u1", Role: models.RoleAdmin},
		loggedOut: true,
	})

	for role, resources := range DashboardTable {
		for resource, actions := range resources {
			for _, action := range actions {
				assert.False(t, nilModel.Can(action, resource), "%s %s %s", role, action, resource)
				assert.False(t, noSource.Can(action, resource))
				assert.False(t, noUser.Can(action, resource))
				assert.False(t, profileOnly.Can(action, resource))
				assert.Nil(t, profileOnly.Actions(resource))
			}
		}
	}
}

func TestModel_Require(t *testing.T) {
	m := NewModel(DashboardTable, withRole(models.RolePengurus))

	require.NoError(t, m.Require(context.Background(), ActionView, ResourceFinance))
	err := m.Require(context.Background(), ActionPublish, ResourceFinance)
	assert.ErrorIs(t, err, ErrAuthorizationDenied)
}

func TestModel_Actions(t *testing.T) {
	m := NewModel(DashboardTable, withRole(models.RolePengurus))
	assert.Equal(t, []Action{ActionView, ActionApproveBid}, m.Actions(ResourceAuctions))

	// копия не влияет на таблицу
	got := m.Actions(ResourceUsers)
	got[0] = ActionDelete
	assert.Equal(t, []Action{ActionView}, DashboardTable[models.RolePengurus][ResourceUsers])

	assert.Nil(t, NewModel(DashboardTable, staticUser{}).Actions(ResourceUsers))
	assert.Equal(t,
		[]Resource{ResourceUsers, ResourceFinance},
		m.Resources([]Resource{ResourceUsers, ResourceHome, ResourceFinance}),
	)
}

func TestTableFor(t *testing.T) {
	assert.Equal(t, DashboardTable, TableFor(models.SurfaceDashboard))
	assert.Equal(t, MobileTable, TableFor(models.SurfaceMobile))
	assert.Empty(t, TableFor(models.Surface("tv")))
}
