package setup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/safespace-dev/safespace/internal/apiclient"
	"github.com/safespace-dev/safespace/internal/config"
	"github.com/safespace-dev/safespace/internal/handler"
	"github.com/safespace-dev/safespace/internal/jwt"
	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/markdown"
	"github.com/safespace-dev/safespace/internal/middleware/ratelimiter"
	"github.com/safespace-dev/safespace/web"
)

const (
	devTemplateDir         = "web"
	templateReloadInterval = 5 * time.Second
	sweepInterval          = time.Minute
	sessionTTL             = 30 * 24 * time.Hour
)

type Dependencies struct {
	Handler    *handler.Handler
	Jwt        jwt.JwtService
	Public     config.Public
	APIClient  *apiclient.APIClient
	CancelFunc context.CancelFunc
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	ctx, cancel := context.WithCancel(context.Background())

	templates, err := handler.LoadTemplates(web.Templates)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	apiClient := apiclient.New(cfg.Public.ApiBaseURL, cfg.Public.ApiTimeout)
	guard := handler.NewSubmissionGuard(cfg.Public.SubmissionTokenTTL)
	limiter := ratelimiter.New(cfg.Public.SubmissionRate, cfg.Public.SubmissionBurst, time.Hour)
	go guard.Run(ctx, sweepInterval)
	go limiter.Run(ctx, sweepInterval)

	h := handler.New(templates, cfg.Public, markdown.New(), apiClient, apiClient, guard, limiter)
	if cfg.IsDevelopment() {
		go runTemplateReloader(ctx, h, os.DirFS(devTemplateDir))
	}

	return &Dependencies{
		Handler:    h,
		Jwt:        jwt.New(cfg.JwtSecret(), sessionTTL),
		Public:     cfg.Public,
		APIClient:  apiClient,
		CancelFunc: cancel,
	}, nil
}

// runTemplateReloader re-reads templates from disk while developing. A
// broken template keeps the previous set.
func runTemplateReloader(ctx context.Context, h *handler.Handler, fsys fs.FS) {
	ticker := time.NewTicker(templateReloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			templates, err := handler.LoadTemplates(fsys)
			if err != nil {
				logger.Log.Warn("template reload failed", "error", err)
				continue
			}
			h.SetTemplates(templates)
		}
	}
}
