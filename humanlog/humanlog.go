// Package humanlog is a reference implementation of the log-line
// formatting spec.md section 6 describes, kept outside the core because
// the spec names "formatting of human-readable log lines" as an
// out-of-scope external collaborator. A driver is free to format
// event.Event values differently; this package exists so the exact
// wording of section 6 is exercised somewhere and testable end to end.
package humanlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sharedcode/repcrec/event"
)

// Format renders a single event as its spec.md section 6 line. Events
// with no prescribed line (there are none today) render as "".
func Format(e event.Event) string {
	switch v := e.(type) {
	case event.Tick:
		return fmt.Sprintf("---------- Time=%d ----------", v.Time)
	case event.Read:
		return fmt.Sprintf("%s reads x%d.%d => %d", v.TxID, v.RecordID, v.SiteID, v.Value)
	case event.Write:
		return fmt.Sprintf("%s wrote %d to x%d in sites-%s", v.TxID, v.Value, v.RecordID, formatSiteList(v.SiteIDs))
	case event.Commit:
		return fmt.Sprintf("%s commits.", v.TxID)
	case event.DeadlockAbort:
		return fmt.Sprintf("%s was aborted due to a deadlock", v.TxID)
	case event.SiteFailureAbort:
		return fmt.Sprintf("%s aborts due to a site failure.", v.TxID)
	case event.SiteFail:
		return fmt.Sprintf("Site-%d fails", v.SiteID)
	case event.SiteRecover:
		return fmt.Sprintf("Site-%d recovers", v.SiteID)
	case event.DeadlockDetected:
		return "Deadlock Detected"
	case event.Dump:
		return strings.Join(v.Lines, "\n")
	case event.Waiting:
		return fmt.Sprintf("%s %s will wait", v.TxID, v.Kind)
	default:
		return ""
	}
}

func formatSiteList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatAll renders a whole tick's events, one line per event, skipping
// any that render empty.
func FormatAll(events []event.Event) []string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		if l := Format(e); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
