package testutil

import (
	"context"
	"testing"

	"github.com/sharedcode/repcrec"
	"github.com/sharedcode/repcrec/command"
	"github.com/sharedcode/repcrec/event"
)

func TestRunAllIndependentTraces(t *testing.T) {
	cfg := repcrec.Config{SiteCount: 10, RecordCount: 20}
	traces := []Trace{
		{Config: cfg, Commands: []command.Command{
			{Kind: command.Begin, TxID: "T1"},
			{Kind: command.Write, TxID: "T1", RecordID: 2, Value: 7},
			{Kind: command.End, TxID: "T1"},
		}},
		{Config: cfg, Commands: []command.Command{
			{Kind: command.BeginRO, TxID: "U"},
			{Kind: command.Read, TxID: "U", RecordID: 2},
			{Kind: command.End, TxID: "U"},
		}},
	}

	results, err := RunAll(context.Background(), traces)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 trace results, got %d", len(results))
	}

	commit := results[0][2][0]
	if _, ok := commit.(event.Tick); !ok {
		t.Fatalf("trace 0's last tick should start with a Tick event, got %T", commit)
	}

	// The second trace's coordinator is independent: U's snapshot at its
	// own startTime=1 sees record x2's bootstrap value 20, unaffected by
	// trace 0's write of 7 to a different coordinator entirely.
	readEvs := results[1][1]
	r, ok := readEvs[1].(event.Read)
	if !ok || r.Value != 20 {
		t.Fatalf("expected trace 1 to read the untouched bootstrap value 20, got %v", readEvs)
	}
}

func TestRunAllStopsOnFirstError(t *testing.T) {
	cfg := repcrec.Config{SiteCount: 10, RecordCount: 20}
	traces := []Trace{
		{Config: cfg, Commands: []command.Command{
			{Kind: command.Begin, TxID: "T1"},
			{Kind: command.Begin, TxID: "T1"}, // duplicate begin: fatal
		}},
	}
	if _, err := RunAll(context.Background(), traces); err == nil {
		t.Fatalf("expected the duplicate begin to surface as an error")
	}
}
