/* SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"
    "sync"
    "time"

    "github.com/paulera/aging-wip-ui/internal/analytics"
    "github.com/paulera/aging-wip-ui/internal/config"
    "github.com/paulera/aging-wip-ui/internal/domain"
    "github.com/paulera/aging-wip-ui/internal/repo"
    "github.com/rs/zerolog"
)

type JiraClient interface {
    Search(ctx context.Context, jql string, startAt, max int) (any, error)
    Issue(ctx context.Context, key string, expandChangelog bool) (any, error)
    Changelog(ctx context.Context, key string, startAt, max int) (any, error)
    Statuses(ctx context.Context) (any, error)
}

type LLM interface {
    SummarizeBreaches(ctx context.Context, sles map[string][]int, breaches []map[string]any) (string, error)
}

type Notifier interface {
    SendMessage(ctx context.Context, chatID int64, text string) error
    SendMessagePlain(ctx context.Context, chatID int64, text string) error
}

type Service struct {
    cfg  config.Config
    log  zerolog.Logger
    repo *repo.Repository
    jira JiraClient
    llm  LLM
    tg   Notifier
}

func New(cfg config.Config, log zerolog.Logger, r *repo.Repository, jira JiraClient, llm LLM, tg Notifier) *Service {
    return &Service{cfg: cfg, log: log, repo: r, jira: jira, llm: llm, tg: tg}
}

// Board is the assembled analytics product for one request.
type Board struct {
    Columns []domain.Column `json:"columns"`
}

type buildStats struct {
    Live         int
    History      int
    EnrichFailed int
}

// BuildBoard runs the full pipeline: resolve the request reference, fetch
// status metadata and issues, enrich changelogs, derive SLEs from history and
// reconcile everything into ordered columns. Configuration errors (bad window,
// bad percentile list) abort; data-quality gaps degrade per issue.
func (s *Service) BuildBoard(ctx context.Context) (*Board, error) {
    b, _, err := s.buildBoard(ctx)
    return b, err
}

func (s *Service) buildBoard(ctx context.Context) (*Board, buildStats, error) {
    var stats buildStats
    ref, err := s.resolveReference()
    if err != nil { return nil, stats, err }

    cats, statusIDs, err := s.loadStatusMetadata(ctx)
    if err != nil { return nil, stats, err }

    live, err := s.fetchIssues(ctx, s.cfg.JiraLiveJQL)
    if err != nil { return nil, stats, err }
    stats.Live = len(live)
    stats.EnrichFailed = s.enrichChangelogs(ctx, live, cats)

    history, err := s.fetchIssues(ctx, s.cfg.JiraHistoryJQL)
    if err != nil { return nil, stats, err }
    stats.History = len(history)

    sles := analytics.AssembleSLEs(history, cats, ref.Window, ref.Percentiles)

    items := make([]domain.BoardItem, 0, len(live))
    for _, iss := range live {
        items = append(items, s.boardItem(iss, cats, ref.Date))
    }
    columns := analytics.ReconcileColumns(items, statusIDs, sles, s.cfg.ColumnOrder)
    return &Board{Columns: columns}, stats, nil
}

// resolveReference validates the request configuration: reference date,
// window string and percentile list. These are fatal when malformed; an
// ambiguous window or percentile set would silently change what every SLE on
// the board means.
func (s *Service) resolveReference() (analytics.Reference, error) {
    refDate := time.Now()
    if s.cfg.ReferenceDate != "" {
        t, err := time.Parse("2006-01-02", s.cfg.ReferenceDate)
        if err != nil { return analytics.Reference{}, fmt.Errorf("reference date %q: %w", s.cfg.ReferenceDate, err) }
        refDate = t
    }
    window, err := analytics.ParseWindow(s.cfg.SLEWindow, refDate)
    if err != nil { return analytics.Reference{}, err }
    ps := s.cfg.SLEPercentiles
    if len(ps) == 0 { return analytics.Reference{}, fmt.Errorf("empty percentile list") }
    for i, p := range ps {
        if p < 0 || p > 100 { return analytics.Reference{}, fmt.Errorf("percentile %v out of range [0,100]", p) }
        if i > 0 && p < ps[i-1] { return analytics.Reference{}, fmt.Errorf("percentiles must be requested in increasing order, got %v", ps) }
    }
    return analytics.Reference{Date: refDate, Window: window, Percentiles: ps}, nil
}

// loadStatusMetadata builds the request's shared category map and the
// status-name to id lookup. The map is built once here and passed around as a
// read-only value for the rest of the request.
func (s *Service) loadStatusMetadata(ctx context.Context) (analytics.CategoryMap, map[string]string, error) {
    res, err := s.jira.Statuses(ctx)
    if err != nil { return nil, nil, fmt.Errorf("status metadata: %w", err) }
    defs := statusDefsFromPayload(res)
    ids := map[string]string{}
    for _, d := range defs {
        if d.Name != "" && d.ID != "" { ids[d.Name] = d.ID }
    }
    return analytics.BuildCategoryMap(defs), ids, nil
}

func (s *Service) boardItem(iss domain.Issue, cats analytics.CategoryMap, ref time.Time) domain.BoardItem {
    anchor := analytics.FirstStableBacklogExit(iss.Changelog, cats)
    if anchor.IsZero() { anchor = iss.CreatedAt }
    stateAnchor := analytics.LatestEntryIntoStatus(iss.Changelog, iss.Status.ID)
    if stateAnchor.IsZero() { stateAnchor = iss.CreatedAt }
    aging := analytics.CalculateAging(anchor, stateAnchor, ref)
    return domain.BoardItem{
        Key:                   iss.Key,
        Status:                iss.Status.Name,
        Age:                   aging.TotalAge,
        AgeInCurrentState:     aging.CurrentStateAge,
        StartDate:             aging.StartDate,
        CurrentStateStartDate: aging.CurrentStateStartDate,
    }
}

// fetchIssues pages a JQL search and parses each payload into the engine's
// issue view.
func (s *Service) fetchIssues(ctx context.Context, jql string) ([]domain.Issue, error) {
    var out []domain.Issue
    startAt := 0
    for {
        res, err := s.jira.Search(ctx, jql, startAt, 50)
        if err != nil { return nil, err }
        m, _ := res.(map[string]any)
        arr, _ := m["issues"].([]any)
        if len(arr) == 0 { break }
        for _, it := range arr {
            if im, _ := it.(map[string]any); im != nil {
                out = append(out, issueFromPayload(im))
            }
        }
        if len(arr) < 50 { break }
        startAt += 50
    }
    return out, nil
}

// enrichChangelogs completes the history of issues that are not yet Done.
// Search responses may truncate long changelogs; non-terminal issues get a
// follow-up fetch. Fetches run in bounded batches with a fixed delay between
// calls, and a failed fetch leaves the issue with whatever history it already
// had: one bad issue never aborts the board.
func (s *Service) enrichChangelogs(ctx context.Context, issues []domain.Issue, cats analytics.CategoryMap) int {
    batch := s.cfg.EnrichBatch
    if batch <= 0 { batch = 10 }

    var pending []int
    for i, iss := range issues {
        if cat, ok := cats.Lookup(iss.Status.ID); ok && cat == domain.CategoryDone { continue }
        pending = append(pending, i)
    }

    var failed int
    var mu sync.Mutex
    for start := 0; start < len(pending); start += batch {
        end := start + batch
        if end > len(pending) { end = len(pending) }
        var wg sync.WaitGroup
        for _, idx := range pending[start:end] {
            wg.Add(1)
            go func(idx int) {
                defer wg.Done()
                time.Sleep(s.cfg.EnrichDelay)
                changelog, err := s.fetchFullChangelog(ctx, issues[idx].Key)
                if err != nil {
                    s.log.Error().Err(err).Str("key", issues[idx].Key).Msg("changelog enrichment failed; proceeding with partial history")
                    mu.Lock()
                    failed++
                    mu.Unlock()
                    return
                }
                issues[idx].Changelog = changelog
            }(idx)
        }
        wg.Wait()
    }
    if failed > 0 {
        s.log.Warn().Int("failed", failed).Int("attempted", len(pending)).Msg("changelog enrichment finished with failures")
    }
    return failed
}

// fetchFullChangelog fetches an issue's changelog via expand=changelog and
// pages the /changelog resource for whatever the expand response truncated.
func (s *Service) fetchFullChangelog(ctx context.Context, key string) ([]domain.StatusChange, error) {
    res, err := s.jira.Issue(ctx, key, true)
    if err != nil { return nil, err }
    im, _ := res.(map[string]any)
    if im == nil { return nil, fmt.Errorf("jira: empty issue payload for %s", key) }

    var changes []domain.StatusChange
    haveHist := 0
    totalHist := 0
    startHist := 0
    if ch, ok := im["changelog"].(map[string]any); ok {
        if t, ok := ch["total"].(float64); ok { totalHist = int(t) }
        if sAt, ok := ch["startAt"].(float64); ok { startHist = int(sAt) }
        if hs, ok := ch["histories"].([]any); ok {
            changes = append(changes, statusChangesFromHistories(hs)...)
            haveHist = len(hs)
        }
    }
    if totalHist > haveHist {
        hStart := startHist + haveHist
        for {
            hres, err := s.jira.Changelog(ctx, key, hStart, 100)
            if err != nil { return nil, err }
            hm, _ := hres.(map[string]any)
            var hvals []any
            if vv, ok := hm["values"].([]any); ok { hvals = vv } else if vv, ok := hm["histories"].([]any); ok { hvals = vv }
            if len(hvals) == 0 { break }
            changes = append(changes, statusChangesFromHistories(hvals)...)
            if totalF, ok := hm["total"].(float64); ok { totalHist = int(totalF) }
            hStart += len(hvals)
            if hStart >= totalHist { break }
        }
    }
    return changes, nil
}

// RefreshBoard is the scheduled/admin-triggered run: build the board, persist
// the snapshot and SLE history, and deliver the aging-alarm digest.
func (s *Service) RefreshBoard(ctx context.Context) error {
    runID, err := s.repo.StartJobRun(ctx)
    if err != nil { s.log.Error().Err(err).Msg("start job run failed") }
    s.log.Info().Msg("RefreshBoard: start")

    var stats buildStats
    var runErr error
    defer func() {
        if runID != 0 {
            errStr := ""
            if runErr != nil { errStr = runErr.Error() }
            _ = s.repo.FinishJobRun(ctx, runID, stats.Live, stats.History, stats.EnrichFailed, runErr == nil, errStr)
        }
    }()

    board, stats, err := s.buildBoard(ctx)
    if err != nil {
        runErr = err
        return err
    }
    sles := map[string][]int{}
    for _, col := range board.Columns {
        if col.SLE != nil { sles[col.Name] = col.SLE }
    }

    if b, err := json.Marshal(board.Columns); err == nil {
        if err := s.repo.SaveBoardSnapshot(ctx, runID, string(b)); err != nil {
            s.log.Error().Err(err).Msg("save board snapshot failed")
        }
    }
    if err := s.repo.BulkInsertSLEs(ctx, runID, sles); err != nil {
        s.log.Error().Err(err).Msg("persist sle history failed")
    }

    s.sendDigest(ctx, board, sles)
    s.log.Info().Int("items", stats.Live).Int("columns", len(board.Columns)).Msg("RefreshBoard: done")
    return nil
}

// sendDigest notifies configured chats about items past their column's
// highest SLE threshold, with an optional LLM narrative.
func (s *Service) sendDigest(ctx context.Context, board *Board, sles map[string][]int) {
    breaches := Breaches(board.Columns)
    if len(breaches) == 0 || len(s.cfg.TelegramChatIDs) == 0 { return }

    text := renderDigest(breaches)
    if s.llm != nil && strings.TrimSpace(s.cfg.OpenAIKey) != "" {
        if narrative, err := s.llm.SummarizeBreaches(ctx, sles, breaches); err == nil && narrative != "" {
            text = text + "\n" + narrative
        } else if err != nil {
            s.log.Error().Err(err).Msg("digest narrative failed; sending plain digest")
        }
    }
    for _, chat := range s.cfg.TelegramChatIDs {
        if err := s.tg.SendMessagePlain(ctx, chat, text); err != nil {
            s.log.Error().Err(err).Int64("chat", chat).Msg("telegram send failed")
        }
    }
}

// Breaches lists items whose age in their current state exceeds the highest
// SLE threshold of their column. Columns without SLE data never alarm.
func Breaches(columns []domain.Column) []map[string]any {
    var out []map[string]any
    for _, col := range columns {
        if len(col.SLE) == 0 { continue }
        limit := col.SLE[len(col.SLE)-1]
        for _, it := range col.Items {
            if it.AgeInCurrentState > limit {
                out = append(out, map[string]any{
                    "key":    it.Key,
                    "status": col.Name,
                    "age_in_current_state": it.AgeInCurrentState,
                    "threshold":            limit,
                })
            }
        }
    }
    return out
}

func renderDigest(breaches []map[string]any) string {
    b := &strings.Builder{}
    fmt.Fprintf(b, "Aging board: %d item(s) past their SLE\n", len(breaches))
    for _, br := range breaches {
        fmt.Fprintf(b, "- %v in %v: day %v (SLE %v)\n", br["key"], br["status"], br["age_in_current_state"], br["threshold"])
    }
    return b.String()
}

func (s *Service) GetLastRun(ctx context.Context) (any, error) {
    return s.repo.GetLastRun(ctx)
}

// ---- payload parsing helpers ----

func parseTimeUTC(v any) *time.Time {
    str, _ := v.(string)
    if str == "" { return nil }
    layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700", "2006-01-02"}
    for _, l := range layouts {
        if t, err := time.Parse(l, str); err == nil {
            tt := t.UTC()
            return &tt
        }
    }
    return nil
}

func toStrAny(v any) string {
    if v == nil { return "" }
    if s, ok := v.(string); ok { return s }
    return fmt.Sprintf("%v", v)
}

// issueFromPayload maps one raw issue payload onto the engine's issue view.
// Changelog order is preserved exactly as delivered.
func issueFromPayload(im map[string]any) domain.Issue {
    iss := domain.Issue{Key: toStrAny(im["key"])}
    fields, _ := im["fields"].(map[string]any)
    if st, ok := fields["status"].(map[string]any); ok {
        iss.Status = domain.StatusRef{ID: toStrAny(st["id"]), Name: toStrAny(st["name"])}
    }
    if t := parseTimeUTC(fields["created"]); t != nil { iss.CreatedAt = *t }
    if ch, ok := im["changelog"].(map[string]any); ok {
        if hs, ok := ch["histories"].([]any); ok {
            iss.Changelog = statusChangesFromHistories(hs)
        }
    }
    return iss
}

// statusChangesFromHistories extracts status-field items from changelog
// history entries, keeping delivered order.
func statusChangesFromHistories(histories []any) []domain.StatusChange {
    var out []domain.StatusChange
    for _, h0 := range histories {
        hv, _ := h0.(map[string]any)
        if hv == nil { continue }
        at := parseTimeUTC(hv["created"])
        if at == nil { continue }
        items, _ := hv["items"].([]any)
        for _, it0 := range items {
            itm, _ := it0.(map[string]any)
            if itm == nil { continue }
            if toStrAny(itm["field"]) != "status" { continue }
            out = append(out, domain.StatusChange{
                At:     *at,
                FromID: toStrAny(itm["from"]),
                ToID:   toStrAny(itm["to"]),
            })
        }
    }
    return out
}

// statusDefsFromPayload maps the status metadata array. The category arrives
// either as a bare string or as a nested statusCategory object; both shapes
// funnel into StatusDef.Category for the resolver to normalize.
func statusDefsFromPayload(res any) []domain.StatusDef {
    var defs []domain.StatusDef
    push := func(m map[string]any) {
        if m == nil { return }
        d := domain.StatusDef{ID: toStrAny(m["id"]), Name: toStrAny(m["name"])}
        switch sc := m["statusCategory"].(type) {
        case string:
            d.Category = sc
        case map[string]any:
            d.Category = toStrAny(sc["key"])
        }
        defs = append(defs, d)
    }
    switch arr := res.(type) {
    case []map[string]any:
        for _, m := range arr { push(m) }
    case []any:
        for _, v := range arr { m, _ := v.(map[string]any); push(m) }
    }
    return defs
}
