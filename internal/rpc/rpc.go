package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	GroupServiceName  = "settleup.v1.GroupService"
	LedgerServiceName = "settleup.v1.LedgerService"
)

// Procedure paths.
const (
	CreateGroupProcedure = "/" + GroupServiceName + "/CreateGroup"
	GetGroupProcedure    = "/" + GroupServiceName + "/GetGroup"
	AddMemberProcedure   = "/" + GroupServiceName + "/AddMember"
	AddContactProcedure  = "/" + GroupServiceName + "/AddContact"
	SetWeightProcedure   = "/" + GroupServiceName + "/SetWeight"

	CreateExpenseProcedure          = "/" + LedgerServiceName + "/CreateExpense"
	UpdateExpenseProcedure          = "/" + LedgerServiceName + "/UpdateExpense"
	SplitBySpecifiedSharesProcedure = "/" + LedgerServiceName + "/SplitBySpecifiedShares"
	DeleteExpenseProcedure          = "/" + LedgerServiceName + "/DeleteExpense"
	GetExpenseProcedure             = "/" + LedgerServiceName + "/GetExpense"
	MarkSharePaidProcedure          = "/" + LedgerServiceName + "/MarkSharePaid"
	RequestSharePaymentProcedure    = "/" + LedgerServiceName + "/RequestSharePayment"
	RejectPaymentProcedure          = "/" + LedgerServiceName + "/RejectPayment"
	RecomputeExpenseStatusProcedure = "/" + LedgerServiceName + "/RecomputeExpenseStatus"
	GetMemberBalanceProcedure       = "/" + LedgerServiceName + "/GetMemberBalance"
	GetPairwiseDebtsProcedure       = "/" + LedgerServiceName + "/GetPairwiseDebts"
	GetExpenseSettlementProcedure   = "/" + LedgerServiceName + "/GetExpenseSettlement"
	GetGroupBalancesProcedure       = "/" + LedgerServiceName + "/GetGroupBalances"
	GetSimplifiedDebtsProcedure     = "/" + LedgerServiceName + "/GetSimplifiedDebts"
	GetItemBreakdownProcedure       = "/" + LedgerServiceName + "/GetItemBreakdown"
)

// handle registers fn under procedure with the JSON codec.
func handle[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}
