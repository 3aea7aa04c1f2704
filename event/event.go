// Package event defines the structured events the coordinator emits for
// each tick. Turning these into the human-readable lines of spec.md
// section 6 is explicitly out of scope for the core (that section lists
// "formatting of human-readable log lines" among the external
// collaborators) - package humanlog is a reference formatter a driver may
// use, but the coordinator itself only ever produces Event values.
package event

// Event is the marker interface implemented by every event kind the
// coordinator can emit in a tick.
type Event interface {
	isEvent()
}

// Tick marks the start of a new logical time step.
type Tick struct {
	Time int
}

// Read records a completed read, naming the site that served it.
type Read struct {
	TxID     string
	RecordID int
	SiteID   int
	Value    int
}

// Write records a completed write and every site it landed on.
type Write struct {
	TxID     string
	RecordID int
	Value    int
	SiteIDs  []int
}

// Commit records a normal commit.
type Commit struct {
	TxID string
}

// DeadlockAbort records a transaction materializing its deadlock-induced abort at end().
type DeadlockAbort struct {
	TxID string
}

// SiteFailureAbort records a transaction materializing its site-failure-induced abort at end().
type SiteFailureAbort struct {
	TxID string
}

// SiteFail records a site transitioning to FAILED.
type SiteFail struct {
	SiteID int
}

// SiteRecover records a site transitioning back to LIVE.
type SiteRecover struct {
	SiteID int
}

// DeadlockDetected records that a tick's deadlock detection pass found
// and resolved a cycle.
type DeadlockDetected struct{}

// Dump records the output of a dump() command: one line per site, in
// ascending site id order, already rendered by site.Site.Dump (which is
// a plain data projection, not log-line formatting).
type Dump struct {
	Lines []string
}

// Waiting records an operation that remained IN_PROGRESS at the end of a
// tick, logged once per operation the first time it blocks.
type Waiting struct {
	TxID string
	Kind string // "R" or "W"
}

func (Tick) isEvent()             {}
func (Read) isEvent()             {}
func (Write) isEvent()            {}
func (Commit) isEvent()           {}
func (DeadlockAbort) isEvent()    {}
func (SiteFailureAbort) isEvent() {}
func (SiteFail) isEvent()         {}
func (SiteRecover) isEvent()      {}
func (DeadlockDetected) isEvent() {}
func (Dump) isEvent()             {}
func (Waiting) isEvent()          {}
