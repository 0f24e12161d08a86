package rpc

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/service"
)

// LedgerHandler serves settleup.v1.LedgerService.
type LedgerHandler struct {
	svc *service.LedgerService
}

// NewLedgerServiceHandler builds the handler for every LedgerService
// procedure. It returns the path to mount it on.
func NewLedgerServiceHandler(svc *service.LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	h := &LedgerHandler{svc: svc}
	mux := http.NewServeMux()
	handle(mux, CreateExpenseProcedure, h.CreateExpense, opts)
	handle(mux, UpdateExpenseProcedure, h.UpdateExpense, opts)
	handle(mux, SplitBySpecifiedSharesProcedure, h.SplitBySpecifiedShares, opts)
	handle(mux, DeleteExpenseProcedure, h.DeleteExpense, opts)
	handle(mux, GetExpenseProcedure, h.GetExpense, opts)
	handle(mux, MarkSharePaidProcedure, h.MarkSharePaid, opts)
	handle(mux, RequestSharePaymentProcedure, h.RequestSharePayment, opts)
	handle(mux, RejectPaymentProcedure, h.RejectPayment, opts)
	handle(mux, RecomputeExpenseStatusProcedure, h.RecomputeExpenseStatus, opts)
	handle(mux, GetMemberBalanceProcedure, h.GetMemberBalance, opts)
	handle(mux, GetPairwiseDebtsProcedure, h.GetPairwiseDebts, opts)
	handle(mux, GetExpenseSettlementProcedure, h.GetExpenseSettlement, opts)
	handle(mux, GetGroupBalancesProcedure, h.GetGroupBalances, opts)
	handle(mux, GetSimplifiedDebtsProcedure, h.GetSimplifiedDebts, opts)
	handle(mux, GetItemBreakdownProcedure, h.GetItemBreakdown, opts)
	return "/" + LedgerServiceName + "/", mux
}

func expenseInput(msg *SaveExpenseRequest) (service.ExpenseInput, error) {
	date, err := parseDate(msg.Date)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	return service.ExpenseInput{
		Description: msg.Description,
		Payer:       msg.Payer,
		Amount:      msg.Amount,
		Date:        date,
		Items:       fromItems(msg.Items),
		Split: service.SplitInput{
			Policy:        msg.Split.Policy,
			Participants:  msg.Split.Participants,
			Percentages:   msg.Split.Percentages,
			Amounts:       msg.Split.Amounts,
			ValidateTotal: msg.Split.ValidateTotal,
		},
	}, nil
}

// CreateExpense records an expense and allocates its shares.
func (h *LedgerHandler) CreateExpense(ctx context.Context, req *connect.Request[SaveExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"policy", req.Msg.Split.Policy,
	)

	if req.Msg.GroupID == "" {
		return nil, invalidArgument("group_id required")
	}
	in, err := expenseInput(req.Msg)
	if err != nil {
		return nil, toConnectError(CreateExpenseProcedure, err)
	}
	expense, err := h.svc.CreateExpense(ctx, req.Msg.GroupID, in)
	if err != nil {
		return nil, toConnectError(CreateExpenseProcedure, err)
	}
	return connect.NewResponse(&ExpenseResponse{Expense: toExpense(expense)}), nil
}

// UpdateExpense edits an expense and re-allocates its shares.
func (h *LedgerHandler) UpdateExpense(ctx context.Context, req *connect.Request[SaveExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	slog.Info("UpdateExpense request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	if req.Msg.ExpenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	in, err := expenseInput(req.Msg)
	if err != nil {
		return nil, toConnectError(UpdateExpenseProcedure, err)
	}
	expense, err := h.svc.UpdateExpense(ctx, req.Msg.GroupID, req.Msg.ExpenseID, in)
	if err != nil {
		return nil, toConnectError(UpdateExpenseProcedure, err)
	}
	return connect.NewResponse(&ExpenseResponse{Expense: toExpense(expense)}), nil
}

// SplitBySpecifiedShares replaces the shares of an expense with given amounts.
func (h *LedgerHandler) SplitBySpecifiedShares(ctx context.Context, req *connect.Request[SplitBySpecifiedSharesRequest]) (*connect.Response[ExpenseResponse], error) {
	slog.Info("SplitBySpecifiedShares request received",
		"group_id", req.Msg.GroupID,
		"expense_id", req.Msg.ExpenseID,
		"shares_count", len(req.Msg.Shares),
	)

	raw := make([]service.RawSplit, len(req.Msg.Shares))
	for i, s := range req.Msg.Shares {
		raw[i] = service.RawSplit{Key: s.Key, Amount: s.Amount, Percentage: s.Percentage}
	}
	expense, err := h.svc.SplitBySpecifiedShares(ctx, req.Msg.GroupID, req.Msg.ExpenseID, raw, req.Msg.ValidateTotal)
	if err != nil {
		return nil, toConnectError(SplitBySpecifiedSharesProcedure, err)
	}
	return connect.NewResponse(&ExpenseResponse{Expense: toExpense(expense)}), nil
}

// DeleteExpense removes an expense with its shares and payments.
func (h *LedgerHandler) DeleteExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[Empty], error) {
	slog.Info("DeleteExpense request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	if err := h.svc.DeleteExpense(ctx, req.Msg.GroupID, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(DeleteExpenseProcedure, err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// GetExpense retrieves an expense with its shares and payments.
func (h *LedgerHandler) GetExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	slog.Info("GetExpense request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	expense, err := h.svc.GetExpense(ctx, req.Msg.GroupID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(GetExpenseProcedure, err)
	}
	return connect.NewResponse(&ExpenseResponse{Expense: toExpense(expense)}), nil
}

// MarkSharePaid confirms a share has been settled.
func (h *LedgerHandler) MarkSharePaid(ctx context.Context, req *connect.Request[MarkSharePaidRequest]) (*connect.Response[PaymentResponse], error) {
	slog.Info("MarkSharePaid request received",
		"group_id", req.Msg.GroupID,
		"share_id", req.Msg.ShareID,
		"paid_by", req.Msg.PaidBy,
	)

	paidDate, err := parseDate(req.Msg.PaidDate)
	if err != nil {
		return nil, toConnectError(MarkSharePaidProcedure, err)
	}
	res, err := h.svc.MarkPaid(ctx, service.MarkPaidInput{
		GroupID:         req.Msg.GroupID,
		ShareID:         req.Msg.ShareID,
		Payer:           req.Msg.PaidBy,
		PaidDate:        paidDate,
		Note:            req.Msg.Note,
		RecomputeStatus: req.Msg.RecomputeStatus,
	})
	if err != nil {
		return nil, toConnectError(MarkSharePaidProcedure, err)
	}
	return connect.NewResponse(&PaymentResponse{Share: toShare(res.Share), FullyPaid: res.FullyPaid}), nil
}

// RequestSharePayment creates the pending payment placeholder of a share.
func (h *LedgerHandler) RequestSharePayment(ctx context.Context, req *connect.Request[RequestSharePaymentRequest]) (*connect.Response[PaymentResponse], error) {
	slog.Info("RequestSharePayment request received", "group_id", req.Msg.GroupID, "share_id", req.Msg.ShareID)

	res, err := h.svc.RequestPayment(ctx, req.Msg.GroupID, req.Msg.ShareID, req.Msg.PaidBy, req.Msg.Note)
	if err != nil {
		return nil, toConnectError(RequestSharePaymentProcedure, err)
	}
	return connect.NewResponse(&PaymentResponse{Share: toShare(res.Share)}), nil
}

// RejectPayment marks a payment rejected.
func (h *LedgerHandler) RejectPayment(ctx context.Context, req *connect.Request[RejectPaymentRequest]) (*connect.Response[PaymentResponse], error) {
	slog.Info("RejectPayment request received", "group_id", req.Msg.GroupID, "payment_id", req.Msg.PaymentID)

	res, err := h.svc.RejectPayment(ctx, req.Msg.GroupID, req.Msg.PaymentID, req.Msg.Reason)
	if err != nil {
		return nil, toConnectError(RejectPaymentProcedure, err)
	}
	return connect.NewResponse(&PaymentResponse{Share: toShare(res.Share)}), nil
}

// RecomputeExpenseStatus promotes an expense to fully paid once every share is paid.
func (h *LedgerHandler) RecomputeExpenseStatus(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	slog.Info("RecomputeExpenseStatus request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	expense, err := h.svc.RecomputeExpenseStatus(ctx, req.Msg.GroupID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(RecomputeExpenseStatusProcedure, err)
	}
	return connect.NewResponse(&ExpenseResponse{Expense: toExpense(expense)}), nil
}

// GetMemberBalance aggregates the group's expenses for one participant.
func (h *LedgerHandler) GetMemberBalance(ctx context.Context, req *connect.Request[MemberRequest]) (*connect.Response[MemberBalanceResponse], error) {
	slog.Info("GetMemberBalance request received", "group_id", req.Msg.GroupID, "participant", req.Msg.Participant)

	bal, err := h.svc.MemberBalance(ctx, req.Msg.GroupID, req.Msg.Participant)
	if err != nil {
		return nil, toConnectError(GetMemberBalanceProcedure, err)
	}
	return connect.NewResponse(&MemberBalanceResponse{Balance: bal}), nil
}

// GetPairwiseDebts lists the unpaid share edges touching one participant.
func (h *LedgerHandler) GetPairwiseDebts(ctx context.Context, req *connect.Request[MemberRequest]) (*connect.Response[PairwiseDebtsResponse], error) {
	slog.Info("GetPairwiseDebts request received", "group_id", req.Msg.GroupID, "participant", req.Msg.Participant)

	debts, err := h.svc.PairwiseDebts(ctx, req.Msg.GroupID, req.Msg.Participant)
	if err != nil {
		return nil, toConnectError(GetPairwiseDebtsProcedure, err)
	}
	return connect.NewResponse(&PairwiseDebtsResponse{Debts: debts}), nil
}

// GetExpenseSettlement lists who pays whom for one expense.
func (h *LedgerHandler) GetExpenseSettlement(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseSettlementResponse], error) {
	slog.Info("GetExpenseSettlement request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	edges, err := h.svc.ExpenseSettlement(ctx, req.Msg.GroupID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(GetExpenseSettlementProcedure, err)
	}
	return connect.NewResponse(&ExpenseSettlementResponse{Edges: edges}), nil
}

// GetGroupBalances calculates balances across all expenses in a group.
func (h *LedgerHandler) GetGroupBalances(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupBalancesResponse], error) {
	slog.Info("GetGroupBalances request received", "group_id", req.Msg.GroupID)

	if req.Msg.GroupID == "" {
		return nil, invalidArgument("group_id required")
	}
	balances, err := h.svc.GroupBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(GetGroupBalancesProcedure, err)
	}

	slog.Info("GetGroupBalances successful", "group_id", req.Msg.GroupID, "members_count", len(balances))
	return connect.NewResponse(&GroupBalancesResponse{Balances: balances}), nil
}

// GetSimplifiedDebts suggests transfers that clear what is still owed in the group.
func (h *LedgerHandler) GetSimplifiedDebts(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[SimplifiedDebtsResponse], error) {
	slog.Info("GetSimplifiedDebts request received", "group_id", req.Msg.GroupID)

	transfers, err := h.svc.SimplifiedDebts(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(GetSimplifiedDebtsProcedure, err)
	}
	return connect.NewResponse(&SimplifiedDebtsResponse{Transfers: transfers}), nil
}

// GetItemBreakdown returns who consumed what on an item-wise expense.
func (h *LedgerHandler) GetItemBreakdown(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ItemBreakdownResponse], error) {
	slog.Info("GetItemBreakdown request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	splits, err := h.svc.ItemBreakdown(ctx, req.Msg.GroupID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(GetItemBreakdownProcedure, err)
	}
	return connect.NewResponse(&ItemBreakdownResponse{Splits: splits}), nil
}
