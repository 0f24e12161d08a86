// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// Store defines the persistence operations of the ledger.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Lookups of missing records return an error wrapping models.ErrResourceNotFound.
type Store interface {
	// CreateGroup persists a new group with its members and contacts.
	// The group.ID and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members and contacts in insertion order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddMember registers a user in a group.
	AddMember(ctx context.Context, groupID string, member *models.GroupMember) error

	// AddContact registers a proxy contact in a group. contact.ID is populated by the store.
	AddContact(ctx context.Context, groupID string, contact *models.GroupContact) error

	// SetWeight updates the family/head count of a member or contact.
	SetWeight(ctx context.Context, groupID string, p models.Participant, weight int) error

	// CreateExpense persists an expense with its items and shares.
	// IDs and CreatedAt are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its items, shares and payments.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense rewrites the header fields and items of an expense.
	// Shares are left alone; use ReplaceShares.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// UpdateExpenseStatus writes the derived status of an expense.
	UpdateExpenseStatus(ctx context.Context, expenseID string, status models.ExpenseStatus) error

	// DeleteExpense removes an expense together with its shares and payments.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup retrieves every expense of a group, oldest first,
	// with items, shares and payments loaded.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// ReplaceShares swaps the share set of an expense as a whole: either the old
	// set or the new one is visible, never a mix. Payments of the old shares go
	// with them. Share IDs are populated by the store.
	ReplaceShares(ctx context.Context, expenseID string, shares []models.ExpenseShare) error

	// GetShare retrieves a share with its payment.
	GetShare(ctx context.Context, shareID string) (*models.ExpenseShare, error)

	// GetPayment retrieves a payment by ID.
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// UpsertPayment creates the payment of a share or updates the existing one.
	// payment.ID is populated by the store when empty.
	UpsertPayment(ctx context.Context, payment *models.Payment) error

	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
