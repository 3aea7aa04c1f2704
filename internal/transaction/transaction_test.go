package transaction

import (
	"testing"

	"github.com/sharedcode/repcrec/event"
	"github.com/sharedcode/repcrec/internal/site"
)

func submitRead(t *testing.T, tx Transaction, recordID int) *Operation {
	t.Helper()
	op := &Operation{Kind: ReadOp, TxID: tx.ID(), RecordID: recordID, Status: InProgress, FirstAttempt: true}
	tx.Record(op)
	return op
}

func submitWrite(t *testing.T, tx Transaction, recordID, value int) *Operation {
	t.Helper()
	op := &Operation{Kind: WriteOp, TxID: tx.ID(), RecordID: recordID, Value: value, Status: InProgress, FirstAttempt: true}
	tx.Record(op)
	return op
}

func newTestArena(t *testing.T) *site.Arena {
	t.Helper()
	a := site.NewArena(2)
	a.Get(1).Add(1, 10, true)
	a.Get(2).Add(1, 10, true)
	return a
}

func TestReadWriteCommitRoundTrip(t *testing.T) {
	a := newTestArena(t)
	tx := NewReadWrite("T1", 0)

	op := submitWrite(t, tx, 1, 99)
	evs := tx.ProcessOperation(op, a)
	if op.Status != Completed {
		t.Fatalf("write to a fresh, live record should complete immediately")
	}
	if _, ok := evs[0].(event.Write); !ok {
		t.Fatalf("expected a Write event, got %T", evs[0])
	}

	endEvs, ok := tx.HandleEnd(a, 5)
	if !ok {
		t.Fatalf("HandleEnd should succeed once every op is completed")
	}
	if _, ok := endEvs[0].(event.Commit); !ok {
		t.Fatalf("expected a Commit event, got %T", endEvs[0])
	}
	if tx.Status() != Committed {
		t.Fatalf("transaction should be COMMITTED")
	}

	v, _ := a.Get(1).GetLatestData(1)
	if v != 99 {
		t.Fatalf("committed write should be visible, got %d", v)
	}
}

func TestHandleEndRejectsInProgressOperation(t *testing.T) {
	a := site.NewArena(1)
	a.Get(1).Add(1, 5, false)
	a.Get(1).Fail(1) // record 1 now has no live holder

	tx := NewReadWrite("T1", 0)
	op := submitWrite(t, tx, 1, 7)
	tx.ProcessOperation(op, a)
	if op.Status != InProgress {
		t.Fatalf("a write with no live holder should stay IN_PROGRESS")
	}
	if _, ok := tx.HandleEnd(a, 1); ok {
		t.Fatalf("HandleEnd should refuse while an operation is still IN_PROGRESS")
	}
}

func TestWaitingEventOnlyLoggedOnce(t *testing.T) {
	a := site.NewArena(1)
	a.Get(1).Add(1, 5, false)
	a.Get(1).Fail(1)

	tx := NewReadWrite("T1", 0)
	op := submitWrite(t, tx, 1, 7)
	evs := tx.ProcessOperation(op, a)
	if len(evs) != 1 {
		t.Fatalf("first blocked attempt should emit one Waiting event, got %v", evs)
	}
	evs = tx.ProcessOperation(op, a)
	if len(evs) != 0 {
		t.Fatalf("a repeated block should not re-emit Waiting, got %v", evs)
	}
}

func TestDeadlockAbortClearsOperationsAndLocks(t *testing.T) {
	a := newTestArena(t)
	t1 := NewReadWrite("T1", 0)
	t2 := NewReadWrite("T2", 1)

	op1 := submitWrite(t, t1, 1, 1)
	t1.ProcessOperation(op1, a)
	op2 := submitWrite(t, t2, 1, 2)
	t2.ProcessOperation(op2, a)
	if op2.Status != InProgress {
		t.Fatalf("T2's write should block behind T1's write lock")
	}

	t2.AbortDeadlocked(a)
	if t2.Status() != Aborted {
		t.Fatalf("AbortDeadlocked should mark the transaction ABORTED")
	}
	if op2.Status != Completed {
		t.Fatalf("AbortDeadlocked should mark queued operations COMPLETED so the retry pass ignores them")
	}

	evs, ok := t2.HandleEnd(a, 2)
	if !ok {
		t.Fatalf("HandleEnd should succeed for a deadlock-aborted transaction")
	}
	if _, ok := evs[0].(event.DeadlockAbort); !ok {
		t.Fatalf("expected a DeadlockAbort event, got %T", evs[0])
	}
}

func TestSiteFailureAbortMaterializesAtEnd(t *testing.T) {
	a := newTestArena(t)
	tx := NewReadWrite("T1", 0)
	op := submitRead(t, tx, 1)
	evs := tx.ProcessOperation(op, a)
	if _, ok := evs[0].(event.Read); !ok {
		t.Fatalf("expected a completed Read, got %v", evs)
	}
	if !tx.TouchesSite(1) {
		t.Fatalf("a completed read should mark the site touched")
	}

	tx.MarkSiteFailureAbort()
	if tx.Status() != Aborted {
		t.Fatalf("MarkSiteFailureAbort should flip status to ABORTED")
	}

	endEvs, ok := tx.HandleEnd(a, 3)
	if !ok {
		t.Fatalf("HandleEnd should succeed once flagged")
	}
	if _, ok := endEvs[0].(event.SiteFailureAbort); !ok {
		t.Fatalf("expected a SiteFailureAbort event, got %T", endEvs[0])
	}
}

func TestReadOnlySnapshotIsolation(t *testing.T) {
	a := newTestArena(t)
	w := Writer(NewReadWrite("T1", 0))
	a.Get(1).InsertNewVersion(1, 50, w)
	a.Get(2).InsertNewVersion(1, 50, w)
	a.Get(1).CommitTransaction(w, 5)
	a.Get(2).CommitTransaction(w, 5)

	ro := NewReadOnly("T2", 2)
	op := submitRead(t, ro, 1)
	evs := ro.ProcessOperation(op, a)
	r, ok := evs[0].(event.Read)
	if !ok {
		t.Fatalf("expected a Read event, got %v", evs)
	}
	if r.Value != 10 {
		t.Fatalf("a snapshot at time 2 should see the original value 10, not the later commit, got %d", r.Value)
	}

	if _, ok := ro.HandleEnd(a, 2); !ok {
		t.Fatalf("HandleEnd should succeed once the read completed")
	}
	if ro.TouchesSite(1) {
		t.Fatalf("a read-only transaction never touches a site")
	}
}
