package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/safespace-dev/safespace/internal/domain"
	"github.com/safespace-dev/safespace/internal/logger"
)

const dashboardTemplate = "dashboard.html"

type dashboardPageData struct {
	Counts domain.DashboardCounts
	Stats  domain.Stats
}

// DashboardHandler shows platform totals. The four fetches run in parallel
// and any that fails shows as zero.
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, dashboardTemplate, h.loadDashboard(r))
}

func (h *Handler) loadDashboard(r *http.Request) dashboardPageData {
	ctx := r.Context()
	cookies := h.sessionCookies(r)
	var data dashboardPageData

	count := func(name string, fetch func(context.Context, ...*http.Cookie) (int, error), dst *int) func() {
		return func() {
			n, err := fetch(ctx, cookies...)
			if err != nil {
				logger.Log.Warn("dashboard count unavailable", "count", name, "error", err)
				return
			}
			*dst = n
		}
	}

	loadConcurrently(
		count("members", h.Counts.CountMembers, &data.Counts.Members),
		count("events", h.Counts.CountEvents, &data.Counts.Events),
		count("stories", h.Counts.CountStories, &data.Counts.Stories),
		func() { data.Stats = h.Questions.GetStats(ctx, cookies...) },
	)
	data.Counts.PendingQuestions = data.Stats.Pending
	return data
}

// loadConcurrently runs fns in parallel and waits for all of them. Each fn
// must write only to its own destination.
func loadConcurrently(fns ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		fn := fn
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	wg.Wait()
}
