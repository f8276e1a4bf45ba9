package digest

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"asymmetricbridge/internal/llm"
)

const (
	SourceTemplate = "template"
	SourceAI       = "ai"

	DefaultMinAIChars = 50
)

type Report struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ReportGenerator turns aggregated data into report text.
type ReportGenerator interface {
	Generate(ctx context.Context, data Data) Report
}

type TemplateGenerator struct{}

func (TemplateGenerator) Generate(_ context.Context, data Data) Report {
	return Report{Content: Render(data), Source: SourceTemplate}
}

// ExternalGenerator asks a text-generation backend for the narrative
// sections. Any failure, an empty reply or one shorter than MinChars yields
// the template report.
type ExternalGenerator struct {
	LLM      llm.Generator
	MinChars int
	Logger   *zap.Logger
}

const systemPrompt = `You are a macro risk analyst writing a weekly intelligence digest.
Write in Markdown with these sections in order: "## Executive Summary" (three sentences),
"## Domino-by-Domino", "## Attention Items" (with a recommended action per item) and
"## Stale Signals". Use only the facts in the JSON you are given. Do not add a title or footer.`

func (g *ExternalGenerator) Generate(ctx context.Context, data Data) Report {
	fallback := TemplateGenerator{}.Generate(ctx, data)
	if g == nil || g.LLM == nil {
		return fallback
	}
	raw, err := json.Marshal(data)
	if err != nil {
		g.warn("marshal digest data failed", err)
		return fallback
	}
	text, err := g.LLM.Generate(ctx, systemPrompt, "Digest data:\n"+string(raw))
	if err != nil {
		g.warn("external digest generation failed", err)
		return fallback
	}
	text = strings.TrimSpace(text)
	minChars := g.MinChars
	if minChars <= 0 {
		minChars = DefaultMinAIChars
	}
	if len([]rune(text)) < minChars {
		if g.Logger != nil {
			g.Logger.Warn("external digest too short, using template", zap.Int("chars", len([]rune(text))))
		}
		return fallback
	}
	return Report{
		Content: renderHeader(data) + text + "\n\n" + renderFooter(data),
		Source:  SourceAI,
	}
}

func (g *ExternalGenerator) warn(msg string, err error) {
	if g.Logger != nil {
		g.Logger.Warn(msg, zap.Error(err))
	}
}
