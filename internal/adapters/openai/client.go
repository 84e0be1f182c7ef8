/* SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
    "context"
    "encoding/json"
    "errors"
    "strings"

    openai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/paulera/aging-wip-ui/internal/config"
    "github.com/rs/zerolog"
)

type Client struct {
    key   string
    model string
    cli   openai.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" { model = "gpt-4.1-mini" }
    cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
    return &Client{ key: cfg.OpenAIKey, model: model, cli: cli, log: log }
}

// SummarizeBreaches turns per-status SLE thresholds and the list of items past
// their highest threshold into a short digest narrative.
func (c *Client) SummarizeBreaches(ctx context.Context, sles map[string][]int, breaches []map[string]any) (string, error) {
    if strings.TrimSpace(c.key) == "" { return "", errors.New("openai: missing key") }
    c.log.Info().Str("model", c.model).Msg("openai SummarizeBreaches call")
    payload := map[string]any{"sles": sles, "breaches": breaches}
    userContent := ""
    if b, err := json.Marshal(payload); err == nil { userContent = string(b) }
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage("You are a flow coach. Given per-status SLE thresholds (days) and the in-flight items currently past their highest threshold, write a short plain-text summary naming the worst offenders and which workflow stages are slipping."),
            openai.UserMessage(userContent),
        },
    }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return resp.Choices[0].Message.Content, nil
}
