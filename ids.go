package repcrec

import (
	"time"

	"github.com/google/uuid"
)

// OpID is a correlation identifier attached to each transaction.Operation
// so that structured log lines emitted by the coordinator (dispatch and
// deadlock-victim traces) can disambiguate two operations
// from the same transaction without overloading the transaction id, which
// is spec-mandated user input and must stay exactly as given. OpID never
// appears in the required human-readable output lines (spec.md section
// 6); it is purely an ambient logging aid, wrapping google/uuid the same
// way the teacher repository wraps it as sop.UUID - unlike sop.UUID, there
// is no ParseOpID/Split/Compare here, since nothing in this module parses
// an OpID back from text or orders by it; it only ever flows from
// NewOpID() into a slog field.
type OpID uuid.UUID

// NilOpID is the zero-value OpID.
var NilOpID OpID

const maxOpIDAttempts = 10

// NewOpID returns a new randomly generated OpID, retrying on error with a
// 1ms backoff. A host whose entropy source is broken enough to exhaust
// every attempt is treated as unrecoverable.
func NewOpID() OpID {
	for attempt := 1; attempt <= maxOpIDAttempts; attempt++ {
		id, err := uuid.NewRandom()
		if err == nil {
			return OpID(id)
		}
		if attempt == maxOpIDAttempts {
			panic(err)
		}
		time.Sleep(time.Millisecond)
	}
	panic("unreachable")
}

// IsNil reports whether the OpID equals the zero-value OpID. OpID is a
// fixed-size byte array, so a direct comparison is enough - no need for
// bytes.Equal.
func (id OpID) IsNil() bool {
	return id == NilOpID
}

// String returns the canonical string representation of the OpID.
func (id OpID) String() string {
	return uuid.UUID(id).String()
}
