package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"asymmetricbridge/internal/domino"
)

const dateLayout = "2006-01-02"

// Render builds the deterministic five-section report. Output depends only
// on d.
func Render(d Data) string {
	var b strings.Builder
	b.WriteString(renderHeader(d))
	b.WriteString(renderBody(d))
	b.WriteString(renderFooter(d))
	return b.String()
}

func renderHeader(d Data) string {
	return fmt.Sprintf("# Intelligence Digest: %s to %s\n\n",
		d.Period.Start.Format(dateLayout), d.Period.End.Format(dateLayout))
}

// renderBody covers the sections an external generator may replace.
func renderBody(d Data) string {
	var b strings.Builder
	b.WriteString("## Executive Summary\n\n")
	b.WriteString(strings.Join(ExecutiveSummary(d), " "))
	b.WriteString("\n\n")

	b.WriteString("## Domino-by-Domino\n\n")
	wrote := false
	for _, ds := range d.Dominos {
		if len(ds.Changes) == 0 {
			continue
		}
		wrote = true
		fmt.Fprintf(&b, "### %d. %s\n\n", ds.ID, ds.Name)
		fmt.Fprintf(&b, "Escalations: **%d**, de-escalations: **%d**, posture: **%s**.\n\n",
			ds.Escalations, ds.Deescalations, ds.Posture)
		for _, t := range ds.Changes {
			fmt.Fprintf(&b, "- %s moved %s→%s on %s. Why: %s\n",
				t.SignalName, upper(t.Old), upper(t.New), t.ChangedAt.Format(dateLayout), reasonOrDash(t.Reason))
		}
		b.WriteString("\n")
	}
	if !wrote {
		b.WriteString("No domino recorded a status change this period.\n\n")
	}

	b.WriteString("## Attention Items\n\n")
	items := AttentionItems(d)
	if len(items) == 0 {
		b.WriteString("- No escalations this period.\n")
	}
	for _, t := range items {
		fmt.Fprintf(&b, "- **%s** (%s) is now %s. Action: %s\n",
			t.SignalName, t.DominoName, upper(t.New), Action(t.New))
	}
	b.WriteString("\n")

	b.WriteString("## Stale Signals\n\n")
	if len(d.Stale) == 0 {
		b.WriteString("- None.\n")
	}
	for _, s := range d.Stale {
		if s.DaysSinceUpdate == nil {
			fmt.Fprintf(&b, "- %s (%s): never updated.\n", s.SignalName, s.DominoName)
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): last updated %d days ago.\n", s.SignalName, s.DominoName, *s.DaysSinceUpdate)
	}
	b.WriteString("\n")
	return b.String()
}

func renderFooter(d Data) string {
	return fmt.Sprintf("---\n\n_Generated %s_\n", d.GeneratedAt.UTC().Format(time.RFC3339))
}

// ExecutiveSummary returns exactly three sentences.
func ExecutiveSummary(d Data) []string {
	out := make([]string, 0, 3)
	out = append(out, fmt.Sprintf("Overall threat level is %s with %d red, %d amber and %d green signals.",
		d.ThreatLevel, d.Counts.Red, d.Counts.Amber, d.Counts.Green))

	if len(d.Escalations)+len(d.Deescalations) == 0 {
		out = append(out, fmt.Sprintf("No signal changed status in the last %s.", plural(d.Period.Days, "day")))
	} else {
		out = append(out, fmt.Sprintf("%s worsened and %d improved across %s in the last %s.",
			plural(len(d.Escalations), "signal"), len(d.Deescalations),
			plural(d.TouchedDominos(), "domino"), plural(d.Period.Days, "day")))
	}

	if len(d.Stale) == 0 {
		out = append(out, "All signals are current.")
	} else {
		out = append(out, fmt.Sprintf("%s not updated within %d days.",
			plural(len(d.Stale), "signal"), d.StaleAfter))
	}
	return out
}

// AttentionItems orders escalations by resulting severity, then recency.
func AttentionItems(d Data) []Transition {
	items := append([]Transition(nil), d.Escalations...)
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := items[i].New.Severity(), items[j].New.Severity()
		if si != sj {
			return si > sj
		}
		return items[i].ChangedAt.After(items[j].ChangedAt)
	})
	return items
}

func Action(s domino.Status) string {
	switch s {
	case domino.StatusRed:
		return "review exposure and act within 24 hours."
	case domino.StatusAmber:
		return "monitor closely and verify the data source."
	default:
		return "watch, no action needed."
	}
}

func upper(s domino.Status) string {
	return strings.ToUpper(string(s))
}

func reasonOrDash(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "-"
	}
	return reason
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
