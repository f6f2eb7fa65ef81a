// Package models defines the persisted domain records of splitledger.
//
// # Records
//
//   - Group: a set of members sharing expenses (owned by the membership directory)
//   - Member: an identity token plus display name, unique within a group
//   - Expense: an immutable expense-split record, the unit the ledger appends and deletes
//   - Split: one member's owed share of an expense
//   - Settlement: a recorded payment between two members that adjusts balances
//
// # Money
//
// Every amount is an int64 count of minor currency units (cents). No record carries
// a floating-point amount.
//
// # Derived values
//
// Net balances and settlement transfers are never stored. They are recomputed from
// the live Expense and Settlement records of a group by the calculator package.
//
// # Relationships
//
// Records reference each other by ID strings, never by pointer. An Expense is never
// mutated once stored; a correction is a delete followed by a new Expense.
package models
