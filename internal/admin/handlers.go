package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/auth"
	"github.com/ghaggin/naviplus-admin/internal/listview"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
	"github.com/ghaggin/naviplus-admin/internal/model"
	"github.com/ghaggin/naviplus-admin/internal/template"
	"go.uber.org/zap"
)

type handlers struct {
	log      *zap.Logger
	sessions *middleware.SessionManager
	guard    *middleware.Guard
	client   *api.Client
	auth     *auth.Service
}

type buildingsPage struct {
	Items []model.Building
	Input model.BuildingInput
}

type pldsPage struct {
	Items    []model.PLD
	Building int
}

type pldFormPage struct {
	Buildings []model.Building
	Input     model.PLDInput
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, tmpl string, td *template.Data) {
	td.Authenticated = h.guard.Check(r.Context()) == middleware.Allow
	if td.Flash == "" {
		td.Flash = h.sessions.PopFlash(r.Context())
	}

	var err error
	if status == http.StatusOK {
		err = template.Render(w, r, tmpl, td)
	} else {
		err = template.RenderStatus(w, r, status, tmpl, td)
	}
	if err != nil {
		h.log.Error("render failed", zap.String("template", tmpl), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// loginRequired redirects to login when err says the session is no longer
// valid. A raw 401 from a direct api call clears the store first.
func (h *handlers) loginRequired(w http.ResponseWriter, r *http.Request, err error) bool {
	if api.IsAuthError(err) {
		h.sessions.Clear(r.Context())
	} else if !errors.Is(err, listview.ErrLoginRequired) {
		return false
	}

	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	return true
}

func (h *handlers) landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "landing.html", &template.Data{PageTitle: "welcome"})
}

func (h *handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	if h.guard.Check(r.Context()) == middleware.Allow {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", &template.Data{PageTitle: "login", Content: ""})
}

func credentials(r *http.Request) model.Credentials {
	return model.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	creds := credentials(r)
	td := &template.Data{PageTitle: "login", Content: creds.Username}

	if err := creds.Validate(); err != nil {
		td.Error = err.Error()
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", td)
		return
	}

	err := h.auth.Login(r.Context(), creds)
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, auth.ErrInvalidCredentials):
		td.Error = auth.InvalidCredentialsMessage
		h.render(w, r, http.StatusUnauthorized, "login.html", td)
	default:
		td.Error = "Login failed: " + api.Message(err)
		h.render(w, r, http.StatusBadGateway, "login.html", td)
	}
}

func (h *handlers) signupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup.html", &template.Data{PageTitle: "sign up", Content: ""})
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	creds := credentials(r)
	td := &template.Data{PageTitle: "sign up", Content: creds.Username}

	if err := creds.Validate(); err != nil {
		td.Error = err.Error()
		h.render(w, r, http.StatusUnprocessableEntity, "signup.html", td)
		return
	}

	if err := h.auth.Signup(r.Context(), creds); err != nil {
		td.Error = "Signup failed: " + api.Message(err)
		h.render(w, r, http.StatusBadRequest, "signup.html", td)
		return
	}

	h.sessions.Flash(r.Context(), "Signup successful. You can now log in.")
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context())
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

func (h *handlers) listBuildings(w http.ResponseWriter, r *http.Request) {
	c := listview.NewBuildings(h.client, h.sessions)
	defer c.Unmount()

	if err := c.Mount(r.Context()); h.loginRequired(w, r, err) {
		return
	}

	h.renderBuildings(w, r, c.Snapshot(), model.BuildingInput{}, "")
}

func (h *handlers) createBuilding(w http.ResponseWriter, r *http.Request) {
	in := model.BuildingInput{
		Name:     r.PostFormValue("name"),
		Location: r.PostFormValue("location"),
	}

	c := listview.NewBuildings(h.client, h.sessions)
	defer c.Unmount()

	if err := c.Mount(r.Context()); h.loginRequired(w, r, err) {
		return
	}

	if err := in.Validate(); err != nil {
		h.renderBuildings(w, r, c.Snapshot(), in, err.Error())
		return
	}

	if c.Snapshot().State != listview.Ready {
		h.renderBuildings(w, r, c.Snapshot(), in, "")
		return
	}

	b, err := c.Create(r.Context(), in)
	if h.loginRequired(w, r, err) {
		return
	}
	if err != nil {
		h.log.Warn("create building failed", zap.String("name", in.Name), zap.Error(err))
		h.renderBuildings(w, r, c.Snapshot(), in, "Failed to create building: "+api.Message(err))
		return
	}

	h.log.Info("building created", zap.Int("id", b.ID), zap.String("name", b.Name))
	h.sessions.Flash(r.Context(), "Building created successfully.")
	h.renderBuildings(w, r, c.Snapshot(), model.BuildingInput{}, "")
}

func (h *handlers) renderBuildings(w http.ResponseWriter, r *http.Request, view listview.View[model.Building], in model.BuildingInput, alert string) {
	td := &template.Data{
		PageTitle: "buildings",
		Content:   buildingsPage{Items: view.Items, Input: in},
	}

	status := http.StatusOK
	switch {
	case view.State == listview.Failed:
		status = http.StatusBadGateway
		td.Error = "Failed to fetch buildings: " + view.Err
	case alert != "":
		status = http.StatusUnprocessableEntity
		td.Error = alert
	}

	h.render(w, r, status, "buildings.html", td)
}

// buildingParam reads the building filter. The original front end linked
// with building_id, the backend filters on building.
func buildingParam(r *http.Request) int {
	v := r.URL.Query().Get("building")
	if v == "" {
		v = r.URL.Query().Get("building_id")
	}

	id, err := strconv.Atoi(v)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func (h *handlers) listPLDs(w http.ResponseWriter, r *http.Request) {
	building := buildingParam(r)

	c := listview.NewPLDs(h.client, h.sessions, building)
	defer c.Unmount()

	if err := c.Mount(r.Context()); h.loginRequired(w, r, err) {
		return
	}

	view := c.Snapshot()
	td := &template.Data{
		PageTitle: "plds",
		Content:   pldsPage{Items: view.Items, Building: building},
	}

	status := http.StatusOK
	if view.State == listview.Failed {
		status = http.StatusBadGateway
		td.Error = "Failed to load PLDs: " + view.Err
	}

	h.render(w, r, status, "plds.html", td)
}

func (h *handlers) newPLD(w http.ResponseWriter, r *http.Request) {
	h.renderPLDForm(w, r, model.PLDInput{Building: buildingParam(r)}, http.StatusOK, "")
}

func (h *handlers) createPLD(w http.ResponseWriter, r *http.Request) {
	building, _ := strconv.Atoi(r.PostFormValue("building"))
	in := model.PLDInput{
		Label:    r.PostFormValue("label"),
		Building: building,
	}

	if err := in.Validate(); err != nil {
		h.renderPLDForm(w, r, in, http.StatusUnprocessableEntity, err.Error())
		return
	}

	p, err := h.client.CreatePLD(r.Context(), in)
	if h.loginRequired(w, r, err) {
		return
	}
	if err != nil {
		h.log.Warn("create pld failed", zap.String("label", in.Label), zap.Error(err))
		h.renderPLDForm(w, r, in, http.StatusBadGateway, "Failed to create PLD: "+api.Message(err))
		return
	}

	h.log.Info("pld created", zap.Int("id", p.ID), zap.Int("building", p.Building))
	h.sessions.Flash(r.Context(), "PLD created.")
	http.Redirect(w, r, "/plds?building="+strconv.Itoa(p.Building), http.StatusSeeOther)
}

// renderPLDForm shows the creation form with the building picker filled from
// the buildings list.
func (h *handlers) renderPLDForm(w http.ResponseWriter, r *http.Request, in model.PLDInput, status int, alert string) {
	c := listview.NewBuildings(h.client, h.sessions)
	defer c.Unmount()

	if err := c.Mount(r.Context()); h.loginRequired(w, r, err) {
		return
	}

	view := c.Snapshot()
	td := &template.Data{
		PageTitle: "new pld",
		Error:     alert,
		Content:   pldFormPage{Buildings: view.Items, Input: in},
	}
	if view.State == listview.Failed && alert == "" {
		status = http.StatusBadGateway
		td.Error = "Failed to fetch buildings: " + view.Err
	}

	h.render(w, r, status, "pld_new.html", td)
}
