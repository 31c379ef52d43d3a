package bybit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"profitsweeper/internal/ledger"

	"github.com/goccy/go-json"
)

type RESTClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow int
	httpClient *http.Client
	now        func() time.Time
}

func NewRESTClient(baseURL, apiKey, apiSecret string, timeout time.Duration, recvWindow int) *RESTClient {
	if recvWindow <= 0 {
		recvWindow = defaultRecvWindow
	}
	return &RESTClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		recvWindow: recvWindow,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// GetClosedPnL fetches closed positions settled between start and end,
// following the page cursor until the venue has no more pages. The venue reads
// a bare startTime as the seven days after it, so end is always sent.
func (c *RESTClient) GetClosedPnL(ctx context.Context, category Category, start, end time.Time) ([]ledger.TradeRecord, error) {
	var items []ClosedPnLItem

	cursor := ""
	for page := 0; ; page++ {
		if page == maxClosedPnLPages {
			return nil, fmt.Errorf("closed pnl: more than %d pages since %s", maxClosedPnLPages, start.UTC().Format(time.RFC3339))
		}

		query := url.Values{}
		query.Set("category", string(category))
		query.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
		query.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
		query.Set("limit", strconv.Itoa(closedPnLPageLimit))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var result ClosedPnLResponse
		if err := c.do(ctx, http.MethodGet, pathClosedPnL, query, nil, &result); err != nil {
			return nil, fmt.Errorf("closed pnl: %w", err)
		}
		items = append(items, result.List...)

		if result.NextPageCursor == "" || len(result.List) == 0 {
			break
		}
		cursor = result.NextPageCursor
	}

	trades, err := ParseClosedPnLList(items)
	if err != nil {
		return nil, fmt.Errorf("parse closed pnl: %w", err)
	}
	return trades, nil
}

// CreateInternalTransfer issues one inter-account transfer. A non-zero retCode
// is returned as *APIError; a FAILED status as an error too.
func (c *RESTClient) CreateInternalTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	var result TransferResult
	if err := c.do(ctx, http.MethodPost, pathInterTransfer, nil, req, &result); err != nil {
		return nil, fmt.Errorf("inter transfer: %w", err)
	}

	if result.Status == TransferStatusFailed {
		return nil, fmt.Errorf("inter transfer %s: status %s", req.TransferID, result.Status)
	}
	if result.TransferID == "" {
		result.TransferID = req.TransferID
	}
	return &result, nil
}

// do sends a signed request and decodes the envelope's result into out.
func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path

	// GET signs the query string, POST signs the JSON body.
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		payload = encoded
	}
	rawQuery := query.Encode()
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	signed := rawQuery
	if method != http.MethodGet {
		signed = string(payload)
	}

	// Construct the request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.sign(req.Header, signed)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bybit http %d: %s", resp.StatusCode, respBody)
	}

	var rawResp BybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rawResp.RetCode != RetCodeOK {
		return &APIError{Code: rawResp.RetCode, Msg: rawResp.RetMsg}
	}

	if err := json.Unmarshal(rawResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// sign sets the v5 HMAC headers: hex(HMAC_SHA256(secret, timestamp+apiKey+recvWindow+payload)).
func (c *RESTClient) sign(h http.Header, payload string) {
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	recvWindow := strconv.Itoa(c.recvWindow)

	h.Set(headerAPIKey, c.apiKey)
	h.Set(headerTimestamp, ts)
	h.Set(headerRecvWindow, recvWindow)
	h.Set(headerSignType, "2")
	h.Set(headerSign, Signature(c.apiSecret, ts+c.apiKey+recvWindow+payload))
}

func Signature(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
