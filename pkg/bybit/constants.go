package bybit

const (
	// DefaultBaseURL is the V5 REST root; endpoints are appended after a slash.
	DefaultBaseURL = "https://api.bybit.com/v5"

	// DefaultRecvWindow is the tolerance (ms) between request timestamp and server time.
	DefaultRecvWindow = "20000"
)

// Authentication headers for private V5 endpoints.
const (
	HeaderAPIKey     = "X-BAPI-API-KEY"
	HeaderTimestamp  = "X-BAPI-TIMESTAMP"
	HeaderRecvWindow = "X-BAPI-RECV-WINDOW"
	HeaderSign       = "X-BAPI-SIGN"
)

// Private endpoints used by the account reporter.
const (
	EndpointWalletBalance = "account/wallet-balance"
	EndpointPositionList  = "position/list"
	EndpointClosedPnl     = "position/closed-pnl"
)

const (
	CategoryLinear = "linear"
	SettleCoinUSDT = "USDT"
)

// Item fields read by the reporter. Numbers are string-encoded by the exchange.
const (
	FieldTotalEquity   = "totalEquity"
	FieldUnrealisedPnl = "unrealisedPnl"
	FieldClosedPnl     = "closedPnl"
)

const serviceName = "bybit"
