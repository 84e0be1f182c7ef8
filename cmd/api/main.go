/* SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/paulera/aging-wip-ui/internal/adapters/jira"
    "github.com/paulera/aging-wip-ui/internal/adapters/openai"
    "github.com/paulera/aging-wip-ui/internal/adapters/telegram"
    "github.com/paulera/aging-wip-ui/internal/config"
    httpx "github.com/paulera/aging-wip-ui/internal/http"
    "github.com/paulera/aging-wip-ui/internal/jobs"
    "github.com/paulera/aging-wip-ui/internal/logger"
    "github.com/paulera/aging-wip-ui/internal/repo"
    "github.com/paulera/aging-wip-ui/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    // Adapters
    jc := jira.NewClient(cfg, log)
    llm := openai.NewClient(cfg, log)
    tg := telegram.NewClient(cfg, log)

    // Services
    repository := repo.NewRepository(db, log)
    svc := services.New(cfg, log, repository, jc, llm, tg)

    // HTTP server (Gin)
    router := httpx.NewRouter(cfg, log, svc)

    // Cron
    cron := jobs.NewCron(cfg, log, svc, repository)
    cron.Start()
    defer cron.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
