// Package site implements the per-site data manager: a container of
// records with a LIVE/FAILED lifecycle, grounded in the teacher
// repository's DataManager-shaped backends (in_memory/transaction_manager.go
// relays CRUD to a NodeRepository the same way a Site relays reads/writes
// to its Records) and in cache/l2inmemorycache.go's lock-key lifecycle for
// the fail-clears-locks behavior.
package site

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharedcode/repcrec/internal/record"
)

// Status is a site's lifecycle state.
type Status int

const (
	Live Status = iota
	Failed
)

func (s Status) String() string {
	if s == Failed {
		return "FAILED"
	}
	return "LIVE"
}

// Site is a container for records at one of the fleet's data sites. It
// owns lifecycle (live/failed), a history of failure timestamps, and
// per-record operations; it never reaches back into the coordinator or
// other sites.
type Site struct {
	ID          int
	status      Status
	failedTimes []int
	records     map[int]*record.Record
}

// New constructs a live Site with no records. Records are added with Add,
// mirroring how the coordinator assigns replicated and non-replicated
// records to sites per the data model in spec.md section 3.
func New(id int) *Site {
	return &Site{
		ID:      id,
		status:  Live,
		records: make(map[int]*record.Record),
	}
}

// Add installs a record under the given id, with its bootstrap committed
// value. Called once during fleet construction.
func (s *Site) Add(recordID int, initialValue int, replicated bool) {
	s.records[recordID] = record.New(initialValue, replicated)
}

// Status reports the site's current lifecycle state.
func (s *Site) Status() Status {
	return s.status
}

// FailedTimes returns the ordered list of timestamps at which this site failed.
func (s *Site) FailedTimes() []int {
	return s.failedTimes
}

// Has reports whether this site holds recordID.
func (s *Site) Has(recordID int) bool {
	_, ok := s.records[recordID]
	return ok
}

// RecordIDs returns the ids of every record present at this site, sorted ascending.
func (s *Site) RecordIDs() []int {
	ids := make([]int, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// IsReadOKForRW reports whether a read-write transaction with the given
// writer identity may attempt to read recordID at this site: false if the
// site is failed or doesn't hold the record; otherwise true iff the
// record has recovered, or its newest version was written by this
// transaction itself (read-your-own-pending-write is always allowed, even
// on a not-yet-recovered replicated record).
func (s *Site) IsReadOKForRW(recordID int, writer record.Writer) bool {
	if s.status == Failed {
		return false
	}
	r, ok := s.records[recordID]
	if !ok {
		return false
	}
	if r.Recovered() {
		return true
	}
	versions := r.Versions()
	return len(versions) > 0 && versions[0].Writer.Equal(writer)
}

// IsWriteOKForRW reports whether a write may be attempted against
// recordID at this site: true iff the site is live and holds the record.
func (s *Site) IsWriteOKForRW(recordID int) bool {
	return s.status == Live && s.Has(recordID)
}

// ReadForRO implements the read-only transaction's snapshot read at this
// site: select the newest committed version with commitTime <= startTime,
// falling back to the oldest version present if none qualifies. If the
// record is replicated, reject the read when a site failure occurred
// strictly between the chosen version's commit and startTime - a fail in
// that window means this site cannot vouch for having continuously held
// the value since it was written.
func (s *Site) ReadForRO(recordID int, startTime int) (int, bool) {
	if s.status == Failed {
		return 0, false
	}
	r, ok := s.records[recordID]
	if !ok {
		return 0, false
	}
	v, ok := r.VersionAsOf(startTime)
	if !ok {
		return 0, false
	}
	if r.Replicated() {
		for _, f := range s.failedTimes {
			if *v.CommitTime < f && f < startTime {
				return 0, false
			}
		}
	}
	return v.Value, true
}

// RequestReadLock enqueues a READ lock request for txID on recordID. A
// no-op when the site is failed.
func (s *Site) RequestReadLock(recordID int, txID string) {
	if s.status == Failed {
		return
	}
	if r, ok := s.records[recordID]; ok {
		r.AddLockRequest(txID, record.ReadLock)
	}
}

// RequestWriteLock enqueues a WRITE lock request for txID on recordID. A
// no-op when the site is failed.
func (s *Site) RequestWriteLock(recordID int, txID string) {
	if s.status == Failed {
		return
	}
	if r, ok := s.records[recordID]; ok {
		r.AddLockRequest(txID, record.WriteLock)
	}
}

// IsReadLockAcquired reports whether txID's queued read request on
// recordID has been acquired per the FIFO rule.
func (s *Site) IsReadLockAcquired(recordID int, txID string) bool {
	if s.status == Failed {
		return false
	}
	r, ok := s.records[recordID]
	return ok && r.IsReadLockAcquired(txID)
}

// IsWriteLockAcquired reports whether txID's queued write request on
// recordID has been acquired per the FIFO rule.
func (s *Site) IsWriteLockAcquired(recordID int, txID string) bool {
	if s.status == Failed {
		return false
	}
	r, ok := s.records[recordID]
	return ok && r.IsWriteLockAcquired(txID)
}

// InsertNewVersion installs an uncommitted write by writer at recordID.
func (s *Site) InsertNewVersion(recordID int, value int, writer record.Writer) {
	if r, ok := s.records[recordID]; ok {
		r.InsertNewVersion(value, writer)
	}
}

// GetLatestData returns the read-your-writes value for recordID.
func (s *Site) GetLatestData(recordID int) (int, bool) {
	r, ok := s.records[recordID]
	if !ok {
		return 0, false
	}
	return r.GetLatestData()
}

// CommitTransaction commits every uncommitted version written by writer,
// across all records at this site, with the given commit timestamp.
func (s *Site) CommitTransaction(writer record.Writer, commitTime int) {
	for _, r := range s.records {
		r.CommitTransaction(writer, commitTime)
	}
}

// RemoveUncommittedDataForTrans drops every uncommitted version written
// by writer, across all records at this site - abort hygiene.
func (s *Site) RemoveUncommittedDataForTrans(writer record.Writer) {
	for _, r := range s.records {
		r.RemoveUncommittedVersionForTrans(writer)
	}
}

// RemoveLocksForTrans drops every lock queue entry belonging to txID,
// across all records at this site - abort hygiene.
func (s *Site) RemoveLocksForTrans(txID string) {
	for _, r := range s.records {
		r.RemoveLocksForTrans(txID)
	}
}

// Fail transitions the site to FAILED at timestamp ts, appending ts to
// failedTimes and clearing uncommitted versions and lock queues at every
// record. Precondition: the site must currently be LIVE.
func (s *Site) Fail(ts int) error {
	if s.status == Failed {
		return fmt.Errorf("site %d: already failed", s.ID)
	}
	s.failedTimes = append(s.failedTimes, ts)
	s.status = Failed
	for _, r := range s.records {
		r.Fail()
	}
	return nil
}

// Recover transitions the site back to LIVE. Replicated records' recovered
// flag stays false until a subsequent committed write lands - see R-RECOV.
// Precondition: the site must currently be FAILED.
func (s *Site) Recover() error {
	if s.status == Live {
		return fmt.Errorf("site %d: already live", s.ID)
	}
	s.status = Live
	return nil
}

// WaitsForEdges returns the union of waits-for edges across every record at this site.
func (s *Site) WaitsForEdges() []record.Edge {
	var edges []record.Edge
	for _, id := range s.RecordIDs() {
		edges = append(edges, s.records[id].WaitsForEdges()...)
	}
	return edges
}

// Dump renders "Site s: x1:v1 x2:v2 ..." using each record's latest
// committed value, in ascending record id order.
func (s *Site) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Site %d:", s.ID)
	for _, id := range s.RecordIDs() {
		v, ok := s.records[id].GetLatestCommittedData()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, " x%d:%d", id, v)
	}
	return b.String()
}
