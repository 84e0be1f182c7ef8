/* SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"

    "github.com/gin-gonic/gin"
    "github.com/paulera/aging-wip-ui/internal/config"
    "github.com/paulera/aging-wip-ui/internal/services"
    "github.com/rs/zerolog"
)

type service interface {
    BuildBoard(ctx context.Context) (*services.Board, error)
    RefreshBoard(ctx context.Context) error
    GetLastRun(ctx context.Context) (any, error)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Board assembles the aging board for the current moment: live items with
// ages, per-column SLE thresholds, columns in configured order.
func (h *Handlers) Board(c *gin.Context) {
    board, err := h.svc.BuildBoard(c.Request.Context())
    if err != nil {
        h.log.Error().Err(err).Msg("board build failed")
        c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, board)
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.svc.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) Refresh(c *gin.Context) {
    // Run in background detached from the HTTP request to avoid context cancellation
    go func(){ _ = h.svc.RefreshBoard(context.Background()) }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
