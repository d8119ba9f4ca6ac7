package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks one backing dependency (Postgres, Redis).
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

// create a new instance of the health handler; nil checks are skipped
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{checks: active}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"status": "ok"})
}

// Readyz reports not ready as soon as one dependency fails its ping.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	for name, ping := range h.checks {
		if err := ping(cctx); err != nil {
			RespondServiceUnavailable(ctx, name+" unavailable")
			return
		}
	}

	ctx.JSON(200, gin.H{"status": "ready"})
}
