package transaction

import (
	"github.com/sharedcode/repcrec/event"
	"github.com/sharedcode/repcrec/internal/site"
)

type abortCause int

const (
	noAbort abortCause = iota
	deadlockAbort
	siteFailureAbort
)

// ReadWrite is a strict two-phase-locking transaction: writes are
// buffered locally as uncommitted versions at every live site holding the
// record, and commit is atomic across those sites. It never cascades
// aborts; commit releases locks uniformly across every touched site.
type ReadWrite struct {
	id           string
	startTime    int
	status       Status
	ops          []*Operation
	sitesTouched map[int]bool
	cause        abortCause
}

// NewReadWrite constructs an ALIVE read-write transaction.
func NewReadWrite(id string, startTime int) *ReadWrite {
	return &ReadWrite{
		id:           id,
		startTime:    startTime,
		status:       Alive,
		sitesTouched: make(map[int]bool),
	}
}

func (t *ReadWrite) ID() string      { return t.id }
func (t *ReadWrite) StartTime() int  { return t.startTime }
func (t *ReadWrite) Kind() Kind      { return ReadWrite }
func (t *ReadWrite) Status() Status  { return t.status }
func (t *ReadWrite) Record(op *Operation) {
	t.ops = append(t.ops, op)
}
func (t *ReadWrite) Operations() []*Operation { return t.ops }

// ProcessOperation dispatches a Read or Write operation.
func (t *ReadWrite) ProcessOperation(op *Operation, sites *site.Arena) []event.Event {
	switch op.Kind {
	case ReadOp:
		return t.processRead(op, sites)
	case WriteOp:
		return t.processWrite(op, sites)
	default:
		return nil
	}
}

func (t *ReadWrite) processRead(op *Operation, sites *site.Arena) []event.Event {
	writer := Writer(t)
	for _, s := range sites.All() {
		if !s.IsReadOKForRW(op.RecordID, writer) {
			continue
		}
		s.RequestReadLock(op.RecordID, t.id)
		if !s.IsReadLockAcquired(op.RecordID, t.id) {
			return t.waitEvent(op, "R")
		}
		value, _ := s.GetLatestData(op.RecordID)
		t.sitesTouched[s.ID] = true
		op.Status = Completed
		return []event.Event{event.Read{TxID: t.id, RecordID: op.RecordID, SiteID: s.ID, Value: value}}
	}
	return t.waitEvent(op, "R")
}

func (t *ReadWrite) processWrite(op *Operation, sites *site.Arena) []event.Event {
	holders := sites.LiveHoldersOf(op.RecordID)
	if len(holders) == 0 {
		return t.waitEvent(op, "W")
	}
	writer := Writer(t)
	for _, s := range holders {
		s.RequestWriteLock(op.RecordID, t.id)
	}
	for _, s := range holders {
		if !s.IsWriteLockAcquired(op.RecordID, t.id) {
			return t.waitEvent(op, "W")
		}
	}
	siteIDs := make([]int, 0, len(holders))
	for _, s := range holders {
		s.InsertNewVersion(op.RecordID, op.Value, writer)
		t.sitesTouched[s.ID] = true
		siteIDs = append(siteIDs, s.ID)
	}
	op.Status = Completed
	return []event.Event{event.Write{TxID: t.id, RecordID: op.RecordID, Value: op.Value, SiteIDs: siteIDs}}
}

func (t *ReadWrite) waitEvent(op *Operation, kind string) []event.Event {
	if !op.FirstAttempt {
		return nil
	}
	op.FirstAttempt = false
	return []event.Event{event.Waiting{TxID: t.id, Kind: kind}}
}

// HandleEnd requires every previously-submitted operation to be COMPLETED.
// If the transaction was already flagged ABORTED (deadlock or a site
// failure it touched), that abort materializes here; otherwise it commits
// atomically across every site it touched.
func (t *ReadWrite) HandleEnd(sites *site.Arena, endTime int) ([]event.Event, bool) {
	for _, op := range t.ops {
		if op.Status != Completed {
			return nil, false
		}
	}

	writer := Writer(t)
	switch {
	case t.status == Aborted && t.cause == siteFailureAbort:
		for _, s := range sites.All() {
			s.RemoveUncommittedDataForTrans(writer)
			s.RemoveLocksForTrans(t.id)
		}
		return []event.Event{event.SiteFailureAbort{TxID: t.id}}, true
	case t.status == Aborted && t.cause == deadlockAbort:
		return []event.Event{event.DeadlockAbort{TxID: t.id}}, true
	default:
		for _, s := range sites.All() {
			s.CommitTransaction(writer, endTime)
			s.RemoveLocksForTrans(t.id)
		}
		t.status = Committed
		return []event.Event{event.Commit{TxID: t.id}}, true
	}
}

// TouchesSite reports whether any completed operation of this transaction
// acquired a lock (read or write) at siteID.
func (t *ReadWrite) TouchesSite(siteID int) bool {
	return t.sitesTouched[siteID]
}

// MarkSiteFailureAbort flips an ALIVE transaction to ABORTED due to a
// site failure; the abort materializes at the next end().
func (t *ReadWrite) MarkSiteFailureAbort() {
	if t.status == Alive {
		t.status = Aborted
		t.cause = siteFailureAbort
	}
}

// AbortDeadlocked marks this transaction ABORTED as a detected cycle's
// youngest member, completes every queued operation so the retry pass
// ignores them, and clears this transaction's locks and uncommitted
// versions at every site.
func (t *ReadWrite) AbortDeadlocked(sites *site.Arena) {
	t.status = Aborted
	t.cause = deadlockAbort
	for _, op := range t.ops {
		op.Status = Completed
	}
	writer := Writer(t)
	for _, s := range sites.All() {
		s.RemoveUncommittedDataForTrans(writer)
		s.RemoveLocksForTrans(t.id)
	}
}
