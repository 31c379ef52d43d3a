package bybit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewRESTClient(srv.URL, "key", "secret", 5*time.Second, 5000)
	client.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return client
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, msg string, result any) {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(w).Encode(BybitResponse{RetCode: code, RetMsg: msg, Result: raw}))
}

// go test -v --run TestSignature
func TestSignature(t *testing.T) {
	// HMAC-SHA256("secret", "message")
	assert.Equal(t, "8b5f48702995c1598c573db1e21866a9b825d4a794d169d7060a03605796360b", Signature("secret", "message"))
}

// go test -v --run TestGetClosedPnL
func TestGetClosedPnL(t *testing.T) {
	start := time.UnixMilli(1699996400000)
	end := time.UnixMilli(1700000000000)
	calls := 0

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, pathClosedPnL, r.URL.Path)
		assert.Equal(t, "linear", r.URL.Query().Get("category"))
		assert.Equal(t, "1699996400000", r.URL.Query().Get("startTime"))
		assert.Equal(t, "1700000000000", r.URL.Query().Get("endTime"))

		// Headers are signed over the exact query string.
		assert.Equal(t, "key", r.Header.Get(headerAPIKey))
		assert.Equal(t, "1700000000000", r.Header.Get(headerTimestamp))
		assert.Equal(t, Signature("secret", "1700000000000key5000"+r.URL.RawQuery), r.Header.Get(headerSign))

		switch r.URL.Query().Get("cursor") {
		case "":
			writeEnvelope(t, w, 0, "OK", ClosedPnLResponse{
				Category:       "linear",
				NextPageCursor: "page2",
				List: []ClosedPnLItem{
					{Symbol: "BTCUSDT", OrderID: "o-2", ClosedPnL: "10.00", UpdatedTime: "1699998200000"},
				},
			})
		case "page2":
			writeEnvelope(t, w, 0, "OK", ClosedPnLResponse{
				Category: "linear",
				List: []ClosedPnLItem{
					{Symbol: "ETHUSDT", OrderID: "o-1", ClosedPnL: "-2.5", UpdatedTime: "1699997000000"},
				},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})

	trades, err := client.GetClosedPnL(context.Background(), CategoryLinear, start, end)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, "BTCUSDT", trades[0].Symbol)
	assert.Equal(t, "o-2", trades[0].OrderID)
	assert.True(t, trades[0].ClosedPnL.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(1699998200000), trades[0].SettledAt.UnixMilli())
	assert.True(t, trades[1].ClosedPnL.Equal(decimal.RequireFromString("-2.5")))
}

// go test -v --run TestGetClosedPnLErrors
func TestGetClosedPnLErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		apiErr  bool
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
		},
		{
			name: "retCode",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(t, w, 10003, "API key is invalid.", struct{}{})
			},
			apiErr: true,
		},
		{
			name: "malformed pnl",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(t, w, 0, "OK", ClosedPnLResponse{List: []ClosedPnLItem{
					{Symbol: "BTCUSDT", OrderID: "o-1", ClosedPnL: "ten", UpdatedTime: "1699998200000"},
				}})
			},
		},
		{
			name: "malformed envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "{not json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			trades, err := client.GetClosedPnL(context.Background(), CategoryLinear, time.Now().Add(-time.Hour), time.Now())
			require.Error(t, err)
			assert.Nil(t, trades)

			var apiErr *APIError
			assert.Equal(t, tt.apiErr, errors.As(err, &apiErr))
		})
	}
}

// go test -v --run TestCreateInternalTransfer
func TestCreateInternalTransfer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathInterTransfer, r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, Signature("secret", "1700000000000key5000"+string(body)), r.Header.Get(headerSign))

		var req TransferRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, TransferRequest{
			TransferID:      "token-1",
			Coin:            "USDT",
			Amount:          "7.50",
			FromAccountType: AccountUnified,
			ToAccountType:   AccountFund,
		}, req)

		writeEnvelope(t, w, 0, "success", TransferResult{TransferID: req.TransferID, Status: TransferStatusSuccess})
	})

	result, err := client.CreateInternalTransfer(context.Background(), TransferRequest{
		TransferID:      "token-1",
		Coin:            "USDT",
		Amount:          "7.50",
		FromAccountType: AccountUnified,
		ToAccountType:   AccountFund,
	})
	require.NoError(t, err)
	assert.Equal(t, "token-1", result.TransferID)
}

// go test -v --run TestCreateInternalTransferRejected
func TestCreateInternalTransferRejected(t *testing.T) {
	t.Run("insufficient balance", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, 131212, "insufficient balance", struct{}{})
		})

		_, err := client.CreateInternalTransfer(context.Background(), TransferRequest{TransferID: "token-1"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 131212, apiErr.Code)
		assert.Equal(t, "insufficient balance", apiErr.Msg)
	})

	t.Run("failed status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, 0, "success", TransferResult{TransferID: "token-1", Status: TransferStatusFailed})
		})

		_, err := client.CreateInternalTransfer(context.Background(), TransferRequest{TransferID: "token-1"})
		assert.Error(t, err)
	})
}
