// Package aggregates defines domain-facing aggregate contracts for the claim
// engine.
//
// Contracts avoid persistence and transport details and mark the write
// boundaries where invariants (quota, one claim per user) must hold
// atomically.
package aggregates
