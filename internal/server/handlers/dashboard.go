package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/yski/yski-client/internal/authz"
	"github.com/yski/yski-client/internal/models"
	"github.com/yski/yski-client/internal/server/sessions"
)

type matrixRow struct {
	Resource string
	Actions  []authz.Action
}

type homePageData struct {
	User     *models.UserProfile
	Overview map[string]any
	Matrix   []matrixRow
}

type resourcePageData struct {
	Resource string
	Payload  string
	Actions  []authz.Action
}

// DashboardHandler - страницы за входом
type DashboardHandler struct {
	*Pages
}

// NewDashboardHandler создает обработчики страниц dashboard
func NewDashboardHandler(pages *Pages) *DashboardHandler {
	return &DashboardHandler{Pages: pages}
}

// MountRoutes регистрирует маршруты страниц
func (h *DashboardHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/r/{resource}", h.resource)
}

// home загружает профиль и сводку параллельно через gateway
func (h *DashboardHandler) home(w http.ResponseWriter, r *http.Request) {
	sess := sessions.FromContext(r.Context())

	var (
		user     models.UserProfile
		overview map[string]any
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return sess.Client.Get(ctx, "/users/me", &user)
	})
	g.Go(func() error {
		return sess.Client.Get(ctx, "/dashboard/overview", &overview)
	})
	if err := g.Wait(); err != nil {
		h.handleAPIError(w, r, err)
		return
	}

	data := homePageData{User: &user, Overview: overview}
	for _, res := range sess.Model.Resources(authz.DashboardResources) {
		data.Matrix = append(data.Matrix, matrixRow{Resource: string(res), Actions: sess.Model.Actions(res)})
	}

	h.render(w, r, http.StatusOK, "home.html", h.pageData(r, "Beranda", data))
}

func (h *DashboardHandler) resource(w http.ResponseWriter, r *http.Request) {
	sess := sessions.FromContext(r.Context())
	res := authz.Resource(chi.URLParam(r, "resource"))

	if !isDashboardResource(res) {
		h.renderError(w, r, http.StatusNotFound, "Tidak ditemukan", "Halaman tidak ditemukan.")
		return
	}
	if err := sess.Model.Require(r.Context(), authz.ActionView, res); err != nil {
		h.renderError(w, r, http.StatusForbidden, "Akses ditolak", "Anda tidak memiliki akses ke modul ini.")
		return
	}

	var raw json.RawMessage
	if err := sess.Client.Get(r.Context(), "/"+string(res), &raw); err != nil {
		h.handleAPIError(w, r, err)
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}

	h.render(w, r, http.StatusOK, "resource.html", h.pageData(r, titleOf(res), resourcePageData{
		Resource: string(res),
		Payload:  pretty.String(),
		Actions:  sess.Model.Actions(res),
	}))
}

func isDashboardResource(res authz.Resource) bool {
	for _, known := range authz.DashboardResources {
		if known == res {
			return true
		}
	}
	return false
}
