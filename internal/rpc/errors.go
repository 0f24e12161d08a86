package rpc

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/models"
)

// toConnectError maps domain errors onto Connect codes. Unknown errors are
// logged and reported as internal.
func toConnectError(procedure string, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, models.ErrInvalidAllocation), errors.Is(err, models.ErrInvalidArgument):
		code = connect.CodeInvalidArgument
	case errors.Is(err, models.ErrResourceNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, models.ErrLockedForEditing),
		errors.Is(err, models.ErrReconciliationDrift),
		errors.Is(err, models.ErrInvalidTransition):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		slog.Error("Request failed", "procedure", procedure, "error", err)
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}

func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}
