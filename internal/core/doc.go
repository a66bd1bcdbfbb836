// Package core provides the business logic of the parts inventory.
//
// This package holds all domain rules independent of any UI or transport
// layer. It is used by the web handlers, the partsctl CLI and tests without
// modification. Persistence is reached only through the [Store] interface.
//
// # Architecture
//
//   - Category tree: a fixed two-level hierarchy of named, orderable groups.
//     [Service.SaveCategory] rejects third-level nesting and self references,
//     and [Service.DeleteCategory] refuses categories that still have
//     children or parts.
//   - Parts: [Service.RegisterPart], [Service.UpdatePart] and
//     [Service.DeletePart] validate fields and keep part numbers unique.
//   - Search: a [CriteriaInput] is parsed into [Criteria] (blank values become
//     absent, errors are collected per field), defaulted, and executed by
//     [Service.SearchParts]. An empty criteria takes the plain listing path.
//   - CSV: [WriteCSV] serializes parts with a fixed five-column header and
//     [Service.ImportCSV] registers uploaded rows one at a time, collecting an
//     [ImportOutcome] of successes, errors and skips.
//   - Audit: every mutation appends an [AuditEntry].
//
// # Error Handling
//
// Errors carry one of the sentinel kinds [ErrValidation], [ErrConflict],
// [ErrNotFound] or [ErrStorage] and are mapped to user-facing messages with
// support codes by [MapError].
//
// # Concurrency
//
// Each request runs to completion on its own goroutine. Duplicate checks are
// read-then-write inside a store transaction; the unique index on part
// numbers and category names is the final guard and surfaces as
// [ErrConflict]. Imports are bounded by an [ImportLimiter].
package core
