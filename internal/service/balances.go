package service

import (
	"context"
	"fmt"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// MemberBalance aggregates every expense of the group for one participant.
func (s *LedgerService) MemberBalance(ctx context.Context, groupID string, member models.Participant) (calculator.MemberBalance, error) {
	expenses, err := s.groupExpenses(ctx, groupID, member)
	if err != nil {
		return calculator.MemberBalance{}, err
	}
	return calculator.CalculateMemberBalance(expenses, member), nil
}

// PairwiseDebts lists the unpaid share edges touching member, one per expense.
func (s *LedgerService) PairwiseDebts(ctx context.Context, groupID string, member models.Participant) (calculator.PairwiseDebts, error) {
	expenses, err := s.groupExpenses(ctx, groupID, member)
	if err != nil {
		return calculator.PairwiseDebts{}, err
	}
	return calculator.CalculatePairwiseDebts(expenses, member), nil
}

// ExpenseSettlement lists the share edges of one expense with their paid flag.
func (s *LedgerService) ExpenseSettlement(ctx context.Context, groupID, expenseID string) ([]calculator.SettlementEdge, error) {
	expense, err := loadExpense(ctx, s.store, groupID, expenseID)
	if err != nil {
		return nil, err
	}
	return calculator.CalculateExpenseSettlement(expense), nil
}

// GroupBalances returns the balance of every participant of the group.
func (s *LedgerService) GroupBalances(ctx context.Context, groupID string) ([]calculator.MemberBalance, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return calculator.CalculateGroupBalances(expenses, group.Participants()), nil
}

// SimplifiedDebts suggests a short list of transfers that clears what is still
// owed in the group once paid shares are settled. It is a report only; the
// per-expense shares stay as they are.
func (s *LedgerService) SimplifiedDebts(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return calculator.SimplifyDebts(calculator.CalculateOutstandingBalances(expenses, group.Participants())), nil
}

// ItemBreakdown returns who consumed what on an item-wise expense.
func (s *LedgerService) ItemBreakdown(ctx context.Context, groupID, expenseID string) ([]calculator.PersonSplit, error) {
	expense, err := loadExpense(ctx, s.store, groupID, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Policy != models.PolicyItemwise {
		return nil, fmt.Errorf("%w: expense %s is split %s, not itemwise", models.ErrInvalidArgument, expenseID, expense.Policy)
	}
	return calculator.CalculateItemBreakdown(expense.Items, expense.Amount)
}

func (s *LedgerService) groupExpenses(ctx context.Context, groupID string, member models.Participant) ([]models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := checkInGroup(group, member); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}
