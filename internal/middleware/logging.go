package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

type (
	groupScoped   interface{ GetGroupID() string }
	expenseScoped interface{ GetExpenseID() string }
	shareScoped   interface{ GetShareID() string }
	paymentScoped interface{ GetPaymentID() string }
)

// requestAttrs returns the group, expense, share and payment IDs a request
// message carries. Empty IDs are left out.
func requestAttrs(msg any) []any {
	var attrs []any
	add := func(key, id string) {
		if id != "" {
			attrs = append(attrs, slog.String(key, id))
		}
	}
	if m, ok := msg.(groupScoped); ok {
		add("group_id", m.GetGroupID())
	}
	if m, ok := msg.(expenseScoped); ok {
		add("expense_id", m.GetExpenseID())
	}
	if m, ok := msg.(shareScoped); ok {
		add("share_id", m.GetShareID())
	}
	if m, ok := msg.(paymentScoped); ok {
		add("payment_id", m.GetPaymentID())
	}
	return attrs
}

// LoggingInterceptor logs every ledger RPC with the procedure, its duration and
// the IDs of the group, expense, share or payment it touched.
// Requests rejected with a client code are warnings; internal failures are errors.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := append([]any{
				"procedure", req.Spec().Procedure,
				"duration_ms", time.Since(start).Milliseconds(),
			}, requestAttrs(req.Any())...)

			var connectErr *connect.Error
			switch {
			case err == nil:
				slog.Info("RPC ok", attrs...)
			case errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown:
				slog.Warn("RPC rejected", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			default:
				slog.Error("RPC failed", append(attrs, "error", err)...)
			}
			return resp, err
		}
	}
}
