// Package billing provides domain models for scheduled payable and receivable obligations.
//
// This package implements the bill lifecycle bounded context, which is responsible for:
//   - Creating bills as single obligations, recurring series, or upfront installment sets
//   - Promoting pending bills past their due date to overdue
//   - Settling a bill exactly once against an account, producing a ledger transaction
//
// Key Aggregates:
//   - Bill: A scheduled obligation with a PENDING -> OVERDUE -> PAID/CANCELLED lifecycle
//
// The billing domain integrates with:
//   - Ledger domain: Accounts absorb settlements and transactions record them
//   - Category domain: Read-only classification of bills and their transactions
package billing
