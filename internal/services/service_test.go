package services

import (
    "testing"
    "time"

    "github.com/paulera/aging-wip-ui/internal/config"
    "github.com/paulera/aging-wip-ui/internal/domain"
)

func TestIssueFromPayload(t *testing.T) {
    payload := map[string]any{
        "key": "PROJ-7",
        "fields": map[string]any{
            "created": "2024-03-01T09:30:00.000+0000",
            "status":  map[string]any{"id": "3", "name": "In Progress"},
        },
        "changelog": map[string]any{
            "histories": []any{
                map[string]any{
                    "created": "2024-03-04T10:00:00.000+0000",
                    "items": []any{
                        map[string]any{"field": "assignee", "from": "a", "to": "b"},
                        map[string]any{"field": "status", "from": "1", "to": "3"},
                    },
                },
            },
        },
    }
    iss := issueFromPayload(payload)
    if iss.Key != "PROJ-7" { t.Fatalf("key = %q", iss.Key) }
    if iss.Status.ID != "3" || iss.Status.Name != "In Progress" { t.Fatalf("status = %+v", iss.Status) }
    if iss.CreatedAt.IsZero() || iss.CreatedAt.Day() != 1 { t.Fatalf("created = %v", iss.CreatedAt) }
    if len(iss.Changelog) != 1 { t.Fatalf("changelog = %+v", iss.Changelog) }
    if iss.Changelog[0].FromID != "1" || iss.Changelog[0].ToID != "3" {
        t.Fatalf("change = %+v", iss.Changelog[0])
    }
}

func TestIssueFromPayloadNonStatusItemsIgnored(t *testing.T) {
    payload := map[string]any{
        "key":    "PROJ-8",
        "fields": map[string]any{"created": "2024-03-01T09:30:00.000+0000"},
        "changelog": map[string]any{
            "histories": []any{
                map[string]any{
                    "created": "2024-03-02T10:00:00.000+0000",
                    "items":   []any{map[string]any{"field": "priority", "from": "2", "to": "1"}},
                },
            },
        },
    }
    if iss := issueFromPayload(payload); len(iss.Changelog) != 0 {
        t.Fatalf("want no status changes, got %+v", iss.Changelog)
    }
}

func TestStatusDefsFromPayloadBothShapes(t *testing.T) {
    res := []any{
        map[string]any{"id": "1", "name": "Backlog", "statusCategory": "TODO"},
        map[string]any{"id": "3", "name": "In Progress", "statusCategory": map[string]any{"key": "indeterminate"}},
    }
    defs := statusDefsFromPayload(res)
    if len(defs) != 2 { t.Fatalf("defs = %+v", defs) }
    if defs[0].Category != "TODO" { t.Fatalf("bare category = %q", defs[0].Category) }
    if defs[1].Category != "indeterminate" { t.Fatalf("nested category = %q", defs[1].Category) }
}

func TestResolveReferenceRejectsBadPercentiles(t *testing.T) {
    cases := []struct {
        name string
        ps   []float64
    }{
        {"empty", nil},
        {"out of range", []float64{50, 120}},
        {"negative", []float64{-1, 50}},
        {"decreasing", []float64{75, 50}},
    }
    for _, tc := range cases {
        s := &Service{cfg: config.Config{SLEWindow: "90d", SLEPercentiles: tc.ps, ReferenceDate: "2024-04-10"}}
        if _, err := s.resolveReference(); err == nil {
            t.Fatalf("%s: want error, got none", tc.name)
        }
    }
}

func TestResolveReferenceParsesWindowAgainstConfiguredDate(t *testing.T) {
    s := &Service{cfg: config.Config{SLEWindow: "90d", SLEPercentiles: []float64{50, 85}, ReferenceDate: "2024-04-10"}}
    ref, err := s.resolveReference()
    if err != nil { t.Fatalf("resolveReference: %v", err) }
    want := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
    if !ref.Date.Equal(want) { t.Fatalf("date = %v", ref.Date) }
    if !ref.Window.Cutoff.Equal(want.AddDate(0, 0, -90)) { t.Fatalf("cutoff = %v", ref.Window.Cutoff) }
}

func TestBreaches(t *testing.T) {
    cols := []domain.Column{
        {Name: "In Progress", SLE: []int{3, 7}, Items: []domain.BoardItem{
            {Key: "A-1", AgeInCurrentState: 8},
            {Key: "A-2", AgeInCurrentState: 7},
        }},
        {Name: "Review", SLE: nil, Items: []domain.BoardItem{
            {Key: "A-3", AgeInCurrentState: 99},
        }},
    }
    got := Breaches(cols)
    if len(got) != 1 { t.Fatalf("breaches = %+v", got) }
    if got[0]["key"] != "A-1" || got[0]["threshold"] != 7 {
        t.Fatalf("breach = %+v", got[0])
    }
}
