package bybit

import (
	"fmt"

	"github.com/goccy/go-json"
)

// BybitResponse represents a generic response from Bybit's V5 REST API.
// This structure covers the standard response envelope used across all endpoints.
type BybitResponse struct {
	RetCode    int                    `json:"retCode"`    // 0 means success; non-zero indicates an error code
	RetMsg     string                 `json:"retMsg"`     // Human-readable message describing the result or error
	Result     json.RawMessage        `json:"result"`     // Delay decoding // Main response payload (varies per endpoint)
	RetExtInfo map[string]interface{} `json:"retExtInfo"` // Optional extra info (e.g. rate limits, error hints)
	Time       int64                  `json:"time"`       // Server timestamp (in milliseconds since epoch)
}

// APIError is a business error reported in the response envelope.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit retCode %d: %s", e.Code, e.Msg)
}

type ClosedPnLResponse struct {
	Category       string          `json:"category"`
	NextPageCursor string          `json:"nextPageCursor"`
	List           []ClosedPnLItem `json:"list"`
}

// ClosedPnLItem is one closed position exactly as the venue encodes it.
// Numbers arrive as strings.
type ClosedPnLItem struct {
	Symbol        string `json:"symbol"`        // e.g., "BTCUSDT"
	OrderID       string `json:"orderId"`       // closing order
	Side          string `json:"side"`          // "Buy" or "Sell"
	Qty           string `json:"qty"`           // order quantity
	ClosedSize    string `json:"closedSize"`    // closed position size
	AvgEntryPrice string `json:"avgEntryPrice"` // average entry price
	AvgExitPrice  string `json:"avgExitPrice"`  // average exit price
	ClosedPnL     string `json:"closedPnl"`     // realized P&L of the close
	Leverage      string `json:"leverage"`
	CreatedTime   string `json:"createdTime"` // ms since epoch
	UpdatedTime   string `json:"updatedTime"` // ms since epoch; settlement time
}

// TransferRequest moves Amount of Coin between two accounts of the same member.
// TransferID is the client idempotency key.
type TransferRequest struct {
	TransferID      string      `json:"transferId"`
	Coin            string      `json:"coin"`
	Amount          string      `json:"amount"`
	FromAccountType AccountType `json:"fromAccountType"`
	ToAccountType   AccountType `json:"toAccountType"`
}

type TransferResult struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}
