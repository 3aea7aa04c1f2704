// Package repcrec implements RepCRec, a simulator of a replicated,
// distributed transactional key-value database. It accepts a scripted,
// time-stepped trace of client operations and executes them against a
// configured fleet of data sites, producing a deterministic log of
// commits, aborts, reads, and per-site snapshots.
//
// The core concurrency-control and replication logic lives in the
// internal/record, internal/site, internal/transaction, and coordinator
// packages. This package holds the cross-cutting pieces shared by all of
// them: error codes, logging configuration, and correlation identifiers.
//
// This package is not intended to drive a CLI or network listener;
// tokenizing input, binary wiring, and log-line formatting belong to the
// caller. See coordinator.Coordinator for the entry point that consumes
// command.Command values.
package repcrec
