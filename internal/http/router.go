/* SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "github.com/paulera/aging-wip-ui/internal/config"
    "github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc service) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context){
        rid := c.GetHeader("X-Request-Id")
        if rid == "" { rid = uuid.NewString() }
        c.Header("X-Request-Id", rid)
        c.Next()
        log.Info().Str("rid", rid).Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)
    r.GET("/board", h.Board)
    r.GET("/admin/last-run", h.LastRun)
    r.POST("/admin/refresh", h.Refresh)

    return r
}
