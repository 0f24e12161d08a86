// Package models defines the core domain models for settleup.
//
// # Entities
//
//   - Expense: one shared cost event, paid up front by a single participant
//   - ExpenseShare: the portion of an expense assigned to exactly one participant
//   - Payment: the settlement record of one share (at most one per share)
//   - Group: the member registry consumed by the engine (members, contacts, weights)
//
// All references point downward (Expense -> ExpenseShare -> Payment) and use ID
// strings rather than pointers back to the owner.
//
// # Money
//
// Amounts are decimal.Decimal values denominated in the group's single currency.
// Shares are finalized at two fraction digits.
//
// # Enumerations
//
// SplitPolicy, ExpenseStatus, PaymentStatus and ShareState are closed sets. Their
// zero values are invalid, and the only way to obtain one from text is the
// matching Parse function, so a stored or decoded value is always legal.
package models
