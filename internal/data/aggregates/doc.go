// Package aggregates contains the transactional implementations of the
// claim and project aggregate contracts.
//
// Implementations compose table-level repos from internal/data/repos and own
// the transaction boundary for every write that touches a project's quota:
// duplicate check, ledger reservation and strategy allocation commit
// together or not at all.
package aggregates
