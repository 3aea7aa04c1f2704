package transaction

import (
	"github.com/sharedcode/repcrec/event"
	"github.com/sharedcode/repcrec/internal/site"
)

// ReadOnly is a snapshot-isolation transaction over the multi-version
// history: every read is answered as of StartTime, from the first site
// (in id order) able to produce it. It takes no locks and is unaffected
// by site failures, aside from individual reads needing to wait for
// another site.
type ReadOnly struct {
	id        string
	startTime int
	status    Status
	ops       []*Operation
}

// NewReadOnly constructs an ALIVE read-only transaction.
func NewReadOnly(id string, startTime int) *ReadOnly {
	return &ReadOnly{id: id, startTime: startTime, status: Alive}
}

func (t *ReadOnly) ID() string         { return t.id }
func (t *ReadOnly) StartTime() int     { return t.startTime }
func (t *ReadOnly) Kind() Kind         { return ReadOnly }
func (t *ReadOnly) Status() Status     { return t.status }
func (t *ReadOnly) Record(op *Operation) {
	t.ops = append(t.ops, op)
}
func (t *ReadOnly) Operations() []*Operation { return t.ops }

// ProcessOperation only ever receives ReadOp: the coordinator rejects a
// write against a read-only transaction as a fatal ErrWriteOnReadOnly before
// ever reaching here.
func (t *ReadOnly) ProcessOperation(op *Operation, sites *site.Arena) []event.Event {
	if op.Kind != ReadOp {
		return nil
	}
	for _, s := range sites.All() {
		value, ok := s.ReadForRO(op.RecordID, t.startTime)
		if !ok {
			continue
		}
		op.Status = Completed
		return []event.Event{event.Read{TxID: t.id, RecordID: op.RecordID, SiteID: s.ID, Value: value}}
	}
	if !op.FirstAttempt {
		return nil
	}
	op.FirstAttempt = false
	return []event.Event{event.Waiting{TxID: t.id, Kind: "R"}}
}

// HandleEnd commits unconditionally once every prior read has completed.
func (t *ReadOnly) HandleEnd(sites *site.Arena, endTime int) ([]event.Event, bool) {
	for _, op := range t.ops {
		if op.Status != Completed {
			return nil, false
		}
	}
	t.status = Committed
	return []event.Event{event.Commit{TxID: t.id}}, true
}

// TouchesSite is always false: a read-only transaction never acquires a lock.
func (t *ReadOnly) TouchesSite(siteID int) bool { return false }

// MarkSiteFailureAbort is a no-op: read-only transactions are not aborted by site failures.
func (t *ReadOnly) MarkSiteFailureAbort() {}

// AbortDeadlocked is a no-op: a read-only transaction never requests a
// lock, so it can never appear in the waits-for graph.
func (t *ReadOnly) AbortDeadlocked(sites *site.Arena) {}
