package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/metrics"
)

func TestInterceptorsPassThrough(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	failing := connect.NewError(connect.CodeNotFound, errors.New("missing"))
	tests := []struct {
		name    string
		next    connect.UnaryFunc
		wantErr error
	}{
		{
			name: "ok",
			next: func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				return connect.NewResponse(&struct{}{}), nil
			},
		},
		{
			name: "client error",
			next: func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				return nil, failing
			},
			wantErr: failing,
		},
		{
			name: "internal error",
			next: func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				return nil, errors.New("boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := LoggingInterceptor()(MetricsInterceptor(m)(tt.next))
			_, err := call(context.Background(), connect.NewRequest(&struct{}{}))
			if tt.name == "ok" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			}
		})
	}

	// One series per code: ok, not_found and unknown.
	count, err := testutil.GatherAndCount(reg, "settleup_rpc_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetricsInterceptorNilMetrics(t *testing.T) {
	call := MetricsInterceptor(nil)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&struct{}{}), nil
	})
	_, err := call(context.Background(), connect.NewRequest(&struct{}{}))
	assert.NoError(t, err)
}

type markPaid struct {
	GroupID string
	ShareID string
}

func (m *markPaid) GetGroupID() string { return m.GroupID }
func (m *markPaid) GetShareID() string { return m.ShareID }

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingInterceptorRecordsLedgerContext(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantMsg   string
		wantCode  string
	}{
		{name: "ok", wantLevel: "INFO", wantMsg: "RPC ok"},
		{
			name:      "locked expense",
			err:       connect.NewError(connect.CodeFailedPrecondition, errors.New("expense is fully paid")),
			wantLevel: "WARN",
			wantMsg:   "RPC rejected",
			wantCode:  "failed_precondition",
		},
		{name: "internal", err: errors.New("disk full"), wantLevel: "ERROR", wantMsg: "RPC failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			call := LoggingInterceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return connect.NewResponse(&struct{}{}), nil
			})

			_, err := call(context.Background(), connect.NewRequest(&markPaid{GroupID: "g1", ShareID: "s1"}))
			assert.Equal(t, tt.err, err)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["msg"])
			assert.Equal(t, "g1", entry["group_id"])
			assert.Equal(t, "s1", entry["share_id"])
			assert.NotContains(t, entry, "expense_id")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, entry["code"])
			}
		})
	}
}

func TestRequestAttrsSkipsEmptyIDs(t *testing.T) {
	assert.Empty(t, requestAttrs(&struct{}{}))
	assert.Equal(t, []any{slog.String("group_id", "g1")}, requestAttrs(&markPaid{GroupID: "g1"}))
}
