// Package database provides SQLite-based storage for scratchindex.
//
// ExperimentDB stores experiments (name, analysis region, result set) and
// their images (bytes, pass count, fingerprint, capture metadata). It
// implements both collaborator ports of the analysis package.
//
// The result set of an experiment is a JSON column guarded by a version
// counter. Every write goes through one transaction that re-reads the set,
// applies the change and bumps the version only if nobody else did in
// between, so a replace is all-or-nothing.
//
// SQLite comes from modernc.org/sqlite, so the binary needs no cgo.
package database
