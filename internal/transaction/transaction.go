// Package transaction implements the two transaction flavors: a strict
// 2PL read-write transaction and a snapshot-isolation read-only
// transaction. Per the design notes, these are a tagged variant behind a
// narrow capability (ProcessOperation, HandleEnd) rather than a dynamic
// dispatch class hierarchy, grounded in the teacher's
// Transaction/TwoPhaseCommitTransaction split in transaction.go, which
// keeps an "enduser facing" wrapper thin and delegates the real phased
// work to a single implementation the wrapper holds by interface value.
package transaction

import (
	"github.com/sharedcode/repcrec"
	"github.com/sharedcode/repcrec/event"
	"github.com/sharedcode/repcrec/internal/record"
	"github.com/sharedcode/repcrec/internal/site"
)

// Status is a transaction's lifecycle state.
type Status int

const (
	Alive Status = iota
	Committed
	Aborted
)

// Kind distinguishes the two transaction flavors, used for metrics labels,
// diagnostics, and the coordinator's rejection of writes against a
// read-only transaction; every other operation goes through the narrow
// Transaction capability below.
type Kind int

const (
	ReadWrite Kind = iota
	ReadOnly
)

func (k Kind) String() string {
	if k == ReadOnly {
		return "RO"
	}
	return "RW"
}

// OpKind tags which grammar form an Operation implements.
type OpKind int

const (
	ReadOp OpKind = iota
	WriteOp
	EndOp
)

// OpStatus is an Operation's lifecycle state.
type OpStatus int

const (
	InProgress OpStatus = iota
	Completed
)

// Operation is the pending-unit record described in the data model: it
// stays IN_PROGRESS while blocked on locks or unavailable sites, and
// transitions to COMPLETED exactly once, whether by executing
// successfully or by being cancelled on transaction abort.
type Operation struct {
	OpID         repcrec.OpID // correlation id for log fields; never part of the command grammar
	Kind         OpKind
	TxID         string
	RecordID     int
	Value        int
	EndTime      int // only meaningful for EndOp: the tick at which end() was read
	Status       OpStatus
	FirstAttempt bool // true until the operation has been logged once as waiting
}

// Transaction is the coordinator-facing capability every transaction
// flavor implements. The coordinator only ever needs StartTime, Status,
// and this single dispatch surface - it does not know or care whether the
// underlying value is a ReadWrite or a ReadOnly transaction.
type Transaction interface {
	ID() string
	StartTime() int
	Kind() Kind
	Status() Status

	// Record appends op to this transaction's own operation log, in
	// submission order. The coordinator calls this once, when an
	// operation is first dispatched (not on retries).
	Record(op *Operation)
	// Operations returns this transaction's own operation log.
	Operations() []*Operation

	// ProcessOperation attempts to advance a Read or Write operation,
	// given shared access to the site arena. It may leave op IN_PROGRESS.
	// It returns any events produced (a completed read or write, or a
	// one-time "will wait" notice).
	ProcessOperation(op *Operation, sites *site.Arena) []event.Event

	// HandleEnd processes an end() command. It requires every
	// previously-submitted operation of this transaction to be COMPLETED;
	// ok is false (a protocol violation) if that does not hold.
	HandleEnd(sites *site.Arena, endTime int) (events []event.Event, ok bool)

	// TouchesSite reports whether this transaction's prior operations
	// have touched siteID. Always false for a read-only transaction,
	// which is unaffected by site failures except that individual reads
	// may be forced to wait for another site.
	TouchesSite(siteID int) bool

	// MarkSiteFailureAbort flips status to Aborted because a site this
	// transaction touched has failed. The abort is deferred: it
	// materializes as an event only when end() is next handled.
	MarkSiteFailureAbort()

	// AbortDeadlocked is invoked on exactly one victim per tick by the
	// coordinator's deadlock resolution pass. It sets status to Aborted,
	// marks every queued operation Completed (so the retry pass ignores
	// them), and clears locks and uncommitted versions for this
	// transaction at every site.
	AbortDeadlocked(sites *site.Arena)
}

// Writer returns the record.Writer identity this transaction's writes are
// tagged with.
func Writer(t Transaction) record.Writer {
	return record.NewWriter(t.ID())
}
