package admin

import (
	"net/http"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/listview"
	"github.com/ghaggin/naviplus-admin/internal/template"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type summary struct {
	Buildings int
	PLDs      int
}

// dashboard loads both collections in parallel; the first failure cancels
// the other request.
func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	buildings := listview.NewBuildings(h.client, h.sessions)
	plds := listview.NewPLDs(h.client, h.sessions, 0)
	defer buildings.Unmount()
	defer plds.Unmount()

	p := pool.New().
		WithContext(r.Context()).
		WithCancelOnError().
		WithFirstError()
	p.Go(buildings.Mount)
	p.Go(plds.Mount)

	err := p.Wait()
	if h.loginRequired(w, r, err) {
		return
	}

	td := &template.Data{PageTitle: "dashboard"}
	status := http.StatusOK
	if err != nil {
		h.log.Warn("dashboard summary failed", zap.Error(err))
		status = http.StatusBadGateway
		td.Error = "Failed to load summary: " + api.Message(err)
	} else {
		td.Content = summary{
			Buildings: len(buildings.Snapshot().Items),
			PLDs:      len(plds.Snapshot().Items),
		}
	}

	h.render(w, r, status, "dashboard.html", td)
}
