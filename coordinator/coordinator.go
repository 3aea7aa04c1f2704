// Package coordinator implements the global tick loop described in
// spec.md section 4.5: it owns the site arena and every live transaction,
// advances logical time once per accepted command, detects and resolves
// deadlocks via the waits-for graph, dispatches the new command, and
// retries every operation still blocked. It is grounded in the teacher
// repository's phased two-phase-commit transaction manager
// (two_phase_commit_transaction.go and transaction.go), which likewise
// drives a fixed sequence of phases per call and fans out the same
// commit/rollback step across every participant; the retry-on-wait loop
// is modeled on transaction_priority_log.go's replay of a submitted log
// against newly-available state.
package coordinator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/sharedcode/repcrec"
	"github.com/sharedcode/repcrec/command"
	"github.com/sharedcode/repcrec/event"
	"github.com/sharedcode/repcrec/internal/site"
	"github.com/sharedcode/repcrec/internal/transaction"
	"github.com/sharedcode/repcrec/metrics"
)

// Coordinator is the single stateful object driving the simulation.
// Nothing it owns is touched concurrently: Tick is the only entry point,
// called once per input command, and is not safe to call from multiple
// goroutines at once.
type Coordinator struct {
	time        int
	arena       *site.Arena
	recordCount int
	txs         map[string]transaction.Transaction
	allOps      []*transaction.Operation
}

// NewCoordinator builds the fleet described by cfg: cfg.SiteCount live
// sites, and cfg.RecordCount records numbered 1..RecordCount, with
// even-numbered records replicated at every site and odd-numbered record
// i held solely at site 1+(i mod 10), each bootstrapped to commit value
// 10*i at time 0, per the data model's record-placement rule.
func NewCoordinator(cfg repcrec.Config) *Coordinator {
	cfg = cfg.WithDefaults()
	arena := site.NewArena(cfg.SiteCount)
	for i := 1; i <= cfg.RecordCount; i++ {
		initial := 10 * i
		if i%2 == 0 {
			for _, s := range arena.All() {
				s.Add(i, initial, true)
			}
			continue
		}
		siteID := 1 + (i % 10)
		if s := arena.Get(siteID); s != nil {
			s.Add(i, initial, false)
		}
	}
	return &Coordinator{
		arena:       arena,
		recordCount: cfg.RecordCount,
		txs:         make(map[string]transaction.Transaction),
	}
}

// Time returns the current logical tick.
func (c *Coordinator) Time() int {
	return c.time
}

// Tick advances logical time by one and processes cmd: resolve any
// deadlock first (retrying unblocked operations if an abort happened),
// dispatch cmd, then run the retry pass once more. A non-nil error is a
// fatal grammar/protocol violation per spec.md section 7 - the events
// already produced (including the leading Tick event) are still valid
// and should still be logged.
func (c *Coordinator) Tick(cmd command.Command) ([]event.Event, error) {
	c.time++
	events := []event.Event{event.Tick{Time: c.time}}

	if victimEvents, aborted := c.resolveDeadlocks(); aborted {
		events = append(events, victimEvents...)
		events = append(events, c.retryPass()...)
	}

	dispatchEvents, err := c.dispatch(cmd)
	events = append(events, dispatchEvents...)
	if err != nil {
		c.logEvents(events)
		return events, err
	}

	events = append(events, c.retryPass()...)
	c.logEvents(events)
	return events, nil
}

// logEvents emits a structured slog record for every coordinator-level
// event produced this tick, per the ambient logging stack: completed
// reads/writes/commits/aborts and site transitions at Info, waits and
// deadlock detection at Debug, since those recur every tick an operation
// stays blocked and would otherwise flood an INFO-level trace.
func (c *Coordinator) logEvents(events []event.Event) {
	for _, e := range events {
		switch ev := e.(type) {
		case event.Read:
			slog.Info("read completed", "tx_id", ev.TxID, "record", ev.RecordID, "site", ev.SiteID, "value", ev.Value)
		case event.Write:
			slog.Info("write completed", "tx_id", ev.TxID, "record", ev.RecordID, "value", ev.Value, "sites", ev.SiteIDs)
		case event.Commit:
			slog.Info("transaction committed", "tx_id", ev.TxID)
		case event.DeadlockAbort:
			slog.Info("transaction aborted", "tx_id", ev.TxID, "cause", "deadlock")
		case event.SiteFailureAbort:
			slog.Info("transaction aborted", "tx_id", ev.TxID, "cause", "site_failure")
		case event.SiteFail:
			slog.Info("site failed", "site", ev.SiteID)
		case event.SiteRecover:
			slog.Info("site recovered", "site", ev.SiteID)
		case event.DeadlockDetected:
			slog.Debug("deadlock detected, victim selection ran this tick")
		case event.Waiting:
			slog.Debug("operation still waiting", "tx_id", ev.TxID, "kind", ev.Kind)
		}
	}
}

func (c *Coordinator) dispatch(cmd command.Command) ([]event.Event, error) {
	switch cmd.Kind {
	case command.Begin:
		return c.dispatchBegin(cmd, false)
	case command.BeginRO:
		return c.dispatchBegin(cmd, true)
	case command.Read:
		return c.dispatchRead(cmd)
	case command.Write:
		return c.dispatchWrite(cmd)
	case command.End:
		return c.dispatchEnd(cmd)
	case command.Dump:
		return c.dispatchDump()
	case command.Fail:
		return c.dispatchFail(cmd)
	case command.Recover:
		return c.dispatchRecover(cmd)
	case command.Quit:
		return nil, nil
	default:
		return nil, repcrec.NewError(repcrec.ErrGrammarViolation, fmt.Errorf("unknown command kind %v", cmd.Kind), "")
	}
}

func (c *Coordinator) dispatchBegin(cmd command.Command, readOnly bool) ([]event.Event, error) {
	if _, exists := c.txs[cmd.TxID]; exists {
		return nil, repcrec.NewError(repcrec.ErrDuplicateBegin, fmt.Errorf("transaction %q already begun", cmd.TxID), "")
	}
	if readOnly {
		c.txs[cmd.TxID] = transaction.NewReadOnly(cmd.TxID, c.time)
	} else {
		c.txs[cmd.TxID] = transaction.NewReadWrite(cmd.TxID, c.time)
	}
	return nil, nil
}

func (c *Coordinator) dispatchRead(cmd command.Command) ([]event.Event, error) {
	tx, err := c.liveTransaction(cmd.TxID)
	if err != nil {
		return nil, err
	}
	if err := c.validateRecord(cmd.RecordID); err != nil {
		return nil, err
	}
	op := &transaction.Operation{OpID: repcrec.NewOpID(), Kind: transaction.ReadOp, TxID: cmd.TxID, RecordID: cmd.RecordID, Status: transaction.InProgress, FirstAttempt: true}
	tx.Record(op)
	c.allOps = append(c.allOps, op)
	slog.Debug("read dispatched", "op_id", op.OpID, "tx_id", cmd.TxID, "record", cmd.RecordID)
	return tx.ProcessOperation(op, c.arena), nil
}

func (c *Coordinator) dispatchWrite(cmd command.Command) ([]event.Event, error) {
	tx, err := c.liveTransaction(cmd.TxID)
	if err != nil {
		return nil, err
	}
	if tx.Kind() == transaction.ReadOnly {
		return nil, repcrec.NewError(repcrec.ErrWriteOnReadOnly, fmt.Errorf("write submitted against read-only transaction %q", cmd.TxID), "")
	}
	if err := c.validateRecord(cmd.RecordID); err != nil {
		return nil, err
	}
	op := &transaction.Operation{OpID: repcrec.NewOpID(), Kind: transaction.WriteOp, TxID: cmd.TxID, RecordID: cmd.RecordID, Value: cmd.Value, Status: transaction.InProgress, FirstAttempt: true}
	tx.Record(op)
	c.allOps = append(c.allOps, op)
	slog.Debug("write dispatched", "op_id", op.OpID, "tx_id", cmd.TxID, "record", cmd.RecordID, "value", cmd.Value)
	return tx.ProcessOperation(op, c.arena), nil
}

func (c *Coordinator) dispatchEnd(cmd command.Command) ([]event.Event, error) {
	tx, ok := c.txs[cmd.TxID]
	if !ok {
		return nil, repcrec.NewError(repcrec.ErrUnknownTransaction, fmt.Errorf("transaction %q not known", cmd.TxID), "")
	}
	if tx.Status() == transaction.Committed {
		return nil, repcrec.NewError(repcrec.ErrUnknownTransaction, fmt.Errorf("transaction %q already completed", cmd.TxID), "")
	}
	events, ok := tx.HandleEnd(c.arena, c.time)
	if !ok {
		return nil, repcrec.NewError(repcrec.ErrProtocolViolation, fmt.Errorf("end(%s) with an operation still in progress", cmd.TxID), "")
	}
	for _, e := range events {
		switch e.(type) {
		case event.Commit:
			metrics.Commits.WithLabelValues(tx.Kind().String()).Inc()
		case event.DeadlockAbort:
			metrics.DeadlockAborts.WithLabelValues().Inc()
		case event.SiteFailureAbort:
			metrics.SiteFailureAborts.WithLabelValues().Inc()
		}
	}
	return events, nil
}

func (c *Coordinator) dispatchDump() ([]event.Event, error) {
	lines := make([]string, 0, len(c.arena.All()))
	for _, s := range c.arena.All() {
		lines = append(lines, s.Dump())
	}
	return []event.Event{event.Dump{Lines: lines}}, nil
}

func (c *Coordinator) dispatchFail(cmd command.Command) ([]event.Event, error) {
	s, err := c.validatedSite(cmd.SiteID)
	if err != nil {
		return nil, err
	}
	if err := s.Fail(c.time); err != nil {
		return nil, repcrec.NewError(repcrec.ErrSiteAlreadyFailed, err, "")
	}
	metrics.SiteFailures.WithLabelValues(fmt.Sprint(cmd.SiteID)).Inc()
	for _, tx := range c.txs {
		if tx.Status() == transaction.Alive && tx.TouchesSite(cmd.SiteID) {
			tx.MarkSiteFailureAbort()
		}
	}
	return []event.Event{event.SiteFail{SiteID: cmd.SiteID}}, nil
}

func (c *Coordinator) dispatchRecover(cmd command.Command) ([]event.Event, error) {
	s, err := c.validatedSite(cmd.SiteID)
	if err != nil {
		return nil, err
	}
	if err := s.Recover(); err != nil {
		return nil, repcrec.NewError(repcrec.ErrSiteAlreadyLive, err, "")
	}
	metrics.SiteRecoveries.WithLabelValues(fmt.Sprint(cmd.SiteID)).Inc()
	return []event.Event{event.SiteRecover{SiteID: cmd.SiteID}}, nil
}

// retryPass re-invokes ProcessOperation for every still-IN_PROGRESS
// operation ever submitted, in original submission order, so an
// operation unblocked by this tick's command (a lock released at commit,
// a site recovering) has a chance to complete within the same tick.
func (c *Coordinator) retryPass() []event.Event {
	var events []event.Event
	for _, op := range c.allOps {
		if op.Status != transaction.InProgress {
			continue
		}
		tx := c.txs[op.TxID]
		evs := tx.ProcessOperation(op, c.arena)
		events = append(events, evs...)
		if op.Status != transaction.InProgress {
			continue
		}
		kind := "R"
		if op.Kind == transaction.WriteOp {
			kind = "W"
		}
		metrics.OperationsWaiting.WithLabelValues(kind).Inc()
	}
	return events
}

// resolveDeadlocks builds the waits-for graph across every site's lock
// queue, and if it contains a cycle, aborts exactly one victim: the
// youngest transaction (by StartTime, ties broken by ascending id) among
// every node that lies on some cycle.
func (c *Coordinator) resolveDeadlocks() ([]event.Event, bool) {
	g := newWaitsForGraph()
	for _, s := range c.arena.All() {
		for _, e := range s.WaitsForEdges() {
			g.addEdge(e.From, e.To)
		}
	}
	onCycle := g.onCycle()
	if len(onCycle) == 0 {
		return nil, false
	}

	var victimID string
	var victimStart int
	first := true
	for _, id := range g.sortedNodes() {
		if !onCycle[id] {
			continue
		}
		tx, ok := c.txs[id]
		if !ok {
			continue
		}
		if first || tx.StartTime() > victimStart || (tx.StartTime() == victimStart && id < victimID) {
			victimID, victimStart, first = id, tx.StartTime(), false
		}
	}
	if first {
		return nil, false
	}

	victim := c.txs[victimID]
	for _, op := range victim.Operations() {
		if op.Status == transaction.InProgress {
			slog.Debug("deadlock victim operation cancelled", "tx_id", victimID, "op_id", op.OpID, "record", op.RecordID)
		}
	}
	slog.Info("deadlock victim selected", "tx_id", victimID, "start_time", victimStart)
	victim.AbortDeadlocked(c.arena)
	metrics.DeadlocksDetected.WithLabelValues().Inc()
	return []event.Event{event.DeadlockDetected{}}, true
}

func (c *Coordinator) liveTransaction(txID string) (transaction.Transaction, error) {
	tx, ok := c.txs[txID]
	if !ok {
		return nil, repcrec.NewError(repcrec.ErrUnknownTransaction, fmt.Errorf("transaction %q not known", txID), "")
	}
	if tx.Status() != transaction.Alive {
		return nil, repcrec.NewError(repcrec.ErrUnknownTransaction, fmt.Errorf("transaction %q already completed", txID), "")
	}
	return tx, nil
}

func (c *Coordinator) validateRecord(id int) error {
	if id < 1 || id > c.recordCount {
		return repcrec.NewError(repcrec.ErrGrammarViolation, fmt.Errorf("record x%d out of range 1..%d", id, c.recordCount), "")
	}
	return nil
}

func (c *Coordinator) validatedSite(id int) (*site.Site, error) {
	s := c.arena.Get(id)
	if s == nil {
		return nil, repcrec.NewError(repcrec.ErrGrammarViolation, fmt.Errorf("site %d out of range 1..%d", id, len(c.arena.IDs())), "")
	}
	return s, nil
}

// Dump is a direct accessor equivalent to issuing a dump() command,
// useful for tests and drivers that want the fleet state without routing
// through the command grammar.
func (c *Coordinator) Dump() []string {
	events, _ := c.dispatchDump()
	d := events[0].(event.Dump)
	return d.Lines
}

// TransactionIDs returns every known transaction id, sorted, for diagnostics.
func (c *Coordinator) TransactionIDs() []string {
	ids := make([]string, 0, len(c.txs))
	for id := range c.txs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
