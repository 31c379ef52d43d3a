package bybit

// Category is the product line a request targets.
type Category string

const (
	CategoryLinear  Category = "linear"
	CategoryInverse Category = "inverse"
	CategorySpot    Category = "spot"
	CategoryOption  Category = "option"
)

// AccountType names a sub-ledger funds can move between.
type AccountType string

const (
	AccountUnified  AccountType = "UNIFIED"
	AccountFund     AccountType = "FUND"
	AccountContract AccountType = "CONTRACT"
	AccountSpot     AccountType = "SPOT"
)

// RetCodeOK is the envelope code for a successful call.
const RetCodeOK = 0

// TransferStatus values reported for an inter-account transfer.
const (
	TransferStatusSuccess = "SUCCESS"
	TransferStatusPending = "PENDING"
	TransferStatusFailed  = "FAILED"
)

const (
	pathClosedPnL     = "/v5/position/closed-pnl"
	pathInterTransfer = "/v5/asset/transfer/inter-transfer"

	// closedPnLPageLimit is the largest page the closed-pnl endpoint serves.
	closedPnLPageLimit = 100
	// maxClosedPnLPages bounds cursor following for a single fetch.
	maxClosedPnLPages = 50

	defaultRecvWindow = 5000
)

const (
	headerAPIKey     = "X-BAPI-API-KEY"
	headerTimestamp  = "X-BAPI-TIMESTAMP"
	headerRecvWindow = "X-BAPI-RECV-WINDOW"
	headerSign       = "X-BAPI-SIGN"
	headerSignType   = "X-BAPI-SIGN-TYPE"
)
