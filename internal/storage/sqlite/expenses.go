package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

const expenseColumns = "id, group_id, description, payer, amount, policy, status, expense_date, created_at"

// CreateExpense persists a new expense with its items and shares.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Status == 0 {
		expense.Status = models.ExpensePending
	}
	if expense.Date.IsZero() {
		expense.Date = time.Unix(expense.CreatedAt, 0).UTC()
	}

	return s.withTx(ctx, func(q querier) error {
		if err := groupExists(ctx, q, expense.GroupID); err != nil {
			return err
		}

		_, err := q.ExecContext(ctx,
			"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			expense.ID, expense.GroupID, expense.Description, participant(&expense.Payer),
			expense.Amount, expense.Policy.String(), expense.Status.String(),
			expense.Date.Format(time.DateOnly), expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		if err := insertItems(ctx, q, expense.ID, expense.Items); err != nil {
			return err
		}
		return insertShares(ctx, q, expense.ID, expense.Shares)
	})
}

// GetExpense retrieves an expense by ID, including items, shares and payments.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadDetails(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, oldest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at, rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	for i := range expenses {
		if err := s.loadDetails(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// UpdateExpense rewrites the header fields and the items of an expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.withTx(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE expenses
			 SET description = ?, payer = ?, amount = ?, policy = ?, expense_date = ?
			 WHERE id = ?`,
			expense.Description, participant(&expense.Payer), expense.Amount,
			expense.Policy.String(), expense.Date.Format(time.DateOnly), expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := checkAffected(res, "expense", expense.ID); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM expense_items WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		return insertItems(ctx, q, expense.ID, expense.Items)
	})
}

// UpdateExpenseStatus writes the derived status of an expense.
func (s *SQLiteStore) UpdateExpenseStatus(ctx context.Context, expenseID string, status models.ExpenseStatus) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE expenses SET status = ? WHERE id = ?",
		status.String(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense status: %w", err)
	}
	return checkAffected(res, "expense", expenseID)
}

// DeleteExpense removes an expense; shares, payments and items cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, "expense", expenseID)
}

// ReplaceShares deletes the share set of an expense and inserts the new one in
// the same transaction.
func (s *SQLiteStore) ReplaceShares(ctx context.Context, expenseID string, shares []models.ExpenseShare) error {
	return s.withTx(ctx, func(q querier) error {
		var exists int
		err := q.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expenseID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("expense", expenseID)
		}
		if err != nil {
			return fmt.Errorf("failed to check expense existence: %w", err)
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expenseID); err != nil {
			return fmt.Errorf("failed to delete shares: %w", err)
		}
		return insertShares(ctx, q, expenseID, shares)
	})
}

// GetShare retrieves a share by ID with its payment.
func (s *SQLiteStore) GetShare(ctx context.Context, shareID string) (*models.ExpenseShare, error) {
	rows, err := s.q.QueryContext(ctx, shareQuery+" WHERE s.id = ?", shareID)
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get share: %w", err)
		}
		return nil, notFound("share", shareID)
	}
	share, err := scanShare(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan share: %w", err)
	}
	return &share, nil
}

// loadDetails fills the items and shares of expense.
func (s *SQLiteStore) loadDetails(ctx context.Context, expense *models.Expense) error {
	items, err := s.listItems(ctx, expense.ID)
	if err != nil {
		return err
	}
	expense.Items = items

	shares, err := s.listShares(ctx, expense.ID)
	if err != nil {
		return err
	}
	expense.Shares = shares
	return nil
}

const shareQuery = `
	SELECT s.id, s.expense_id, s.participant, s.amount, s.percentage, s.position,
	       p.id, p.paid_by, p.status, p.paid_date, p.note, p.updated_at
	FROM expense_shares s
	LEFT JOIN payments p ON p.share_id = s.id`

func (s *SQLiteStore) listShares(ctx context.Context, expenseID string) ([]models.ExpenseShare, error) {
	rows, err := s.q.QueryContext(ctx, shareQuery+" WHERE s.expense_id = ? ORDER BY s.position", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	var shares []models.ExpenseShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}
	return shares, nil
}

func (s *SQLiteStore) listItems(ctx context.Context, expenseID string) ([]models.Item, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, description, amount FROM expense_items WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Description, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	rows.Close()

	// Get assignments for each item
	for i := range items {
		assignRows, err := s.q.QueryContext(ctx,
			"SELECT participant FROM item_assignments WHERE item_id = ? ORDER BY position",
			items[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get item assignments: %w", err)
		}

		for assignRows.Next() {
			var p models.Participant
			if err := assignRows.Scan(participant(&p)); err != nil {
				assignRows.Close()
				return nil, fmt.Errorf("failed to scan assignment: %w", err)
			}
			items[i].AssignedTo = append(items[i].AssignedTo, p)
		}
		assignRows.Close()
		if err := assignRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate assignments: %w", err)
		}
	}
	return items, nil
}

func insertItems(ctx context.Context, q querier, expenseID string, items []models.Item) error {
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}

		_, err := q.ExecContext(ctx,
			"INSERT INTO expense_items (id, expense_id, description, amount, position) VALUES (?, ?, ?, ?, ?)",
			item.ID, expenseID, item.Description, item.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		// Insert item assignments
		for j := range item.AssignedTo {
			_, err = q.ExecContext(ctx,
				"INSERT INTO item_assignments (item_id, participant, position) VALUES (?, ?, ?)",
				item.ID, participant(&item.AssignedTo[j]), j,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}
	return nil
}

func insertShares(ctx context.Context, q querier, expenseID string, shares []models.ExpenseShare) error {
	for i := range shares {
		share := &shares[i]
		if share.ID == "" {
			share.ID = uuid.New().String()
		}
		share.ExpenseID = expenseID
		share.Position = i

		_, err := q.ExecContext(ctx,
			`INSERT INTO expense_shares (id, expense_id, participant, amount, percentage, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			share.ID, expenseID, participant(&share.Participant), share.Amount, share.Percentage, share.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}

		if share.Payment != nil {
			share.Payment.ShareID = share.ID
			if err := upsertPayment(ctx, q, share.Payment); err != nil {
				return err
			}
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		expense                    models.Expense
		policy, status, expenseDay string
	)
	err := row.Scan(&expense.ID, &expense.GroupID, &expense.Description, participant(&expense.Payer),
		&expense.Amount, &policy, &status, &expenseDay, &expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	if expense.Policy, err = models.ParseSplitPolicy(policy); err != nil {
		return nil, err
	}
	if expense.Status, err = models.ParseExpenseStatus(status); err != nil {
		return nil, err
	}
	if expense.Date, err = time.ParseInLocation(time.DateOnly, expenseDay, time.UTC); err != nil {
		return nil, fmt.Errorf("invalid expense date %q: %w", expenseDay, err)
	}
	return &expense, nil
}

func scanShare(row rowScanner) (models.ExpenseShare, error) {
	var (
		share     models.ExpenseShare
		paymentID sql.NullString
		paidBy    models.Participant
		status    sql.NullString
		paidDate  sql.NullString
		note      sql.NullString
		updatedAt sql.NullInt64
	)
	err := row.Scan(&share.ID, &share.ExpenseID, participant(&share.Participant), &share.Amount,
		&share.Percentage, &share.Position,
		&paymentID, participant(&paidBy), &status, &paidDate, &note, &updatedAt)
	if err != nil {
		return share, err
	}
	if !paymentID.Valid {
		return share, nil
	}

	payment := &models.Payment{
		ID:        paymentID.String,
		ShareID:   share.ID,
		PaidBy:    paidBy,
		Note:      note.String,
		UpdatedAt: updatedAt.Int64,
	}
	if payment.Status, err = models.ParsePaymentStatus(status.String); err != nil {
		return share, err
	}
	if payment.PaidDate, err = parseOptionalDate(paidDate); err != nil {
		return share, err
	}
	share.Payment = payment
	return share, nil
}
