package account

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bybitnotifier/pkg/apierror"
	"bybitnotifier/pkg/bybit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newService wires a Service to a fake V5 server answering body for every path.
func newService(t *testing.T, body string, seen *[]string) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = append(*seen, r.URL.Path+"?"+r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := bybit.NewRESTClient(srv.URL+"/v5", time.Second, bybit.Credentials{APIKey: "k", APISecret: []byte("s")})
	return NewService(client, "UNIFIED")
}

// go test -v --run TestGetBalance
func TestGetBalance(t *testing.T) {
	var seen []string
	svc := newService(t, `{"retCode":0,"result":{"list":[{"totalEquity":"1234.56"}]}}`, &seen)

	balance, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1234.56, balance, 1e-9)
	assert.Equal(t, []string{"/v5/account/wallet-balance?accountType=UNIFIED"}, seen)
}

func TestGetBalanceAPIError(t *testing.T) {
	svc := newService(t, `{"retCode":10001,"retMsg":"invalid signature"}`, nil)

	_, err := svc.GetBalance(context.Background())

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 10001, apiErr.Code)
	assert.Equal(t, "invalid signature", apiErr.Message)
}

func TestGetBalanceParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"empty list", `{"retCode":0,"result":{"list":[]}}`, "no data"},
		{"missing list", `{"retCode":0,"result":{}}`, "no data"},
		{"missing field", `{"retCode":0,"result":{"list":[{"coin":[]}]}}`, "malformed data"},
		{"non numeric", `{"retCode":0,"result":{"list":[{"totalEquity":"abc"}]}}`, "malformed data"},
		{"missing result", `{"retCode":0}`, "wallet result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(t, tt.body, nil).GetBalance(context.Background())

			var parseErr *apierror.ParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.Contains(t, parseErr.Reason, tt.reason)
		})
	}
}

func TestGetPositions(t *testing.T) {
	var seen []string
	svc := newService(t, `{"retCode":0,"result":{"list":[{"symbol":"BTCUSDT","side":"Buy","unrealisedPnl":"1.5"},{"symbol":"ETHUSDT","size":"0"}]}}`, &seen)

	items, err := svc.GetPositions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.JSONEq(t, `{"symbol":"ETHUSDT","size":"0"}`, string(items[1]))
	assert.Equal(t, []string{"/v5/position/list?category=linear&settleCoin=USDT&limit=10"}, seen)
}

func TestGetClosedPnl(t *testing.T) {
	var seen []string
	svc := newService(t, `{"retCode":0,"result":{"list":[{"closedPnl":"10.5"},{"closedPnl":"bad"}]}}`, &seen)

	items, err := svc.GetClosedPnl(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []string{"/v5/position/closed-pnl?category=linear&limit=100"}, seen)
}

func TestListRejectsBadLimit(t *testing.T) {
	svc := NewService(failingRequester{}, "UNIFIED")

	_, err := svc.GetPositions(context.Background(), 0)
	assert.Error(t, err)
	_, err = svc.GetClosedPnl(context.Background(), -1)
	assert.Error(t, err)
}

func TestListPropagatesRequestError(t *testing.T) {
	svc := NewService(failingRequester{}, "UNIFIED")

	_, err := svc.GetPositions(context.Background(), 10)

	var reqErr *apierror.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingRequester struct{}

func (failingRequester) Request(context.Context, string, string) (*bybit.Envelope, error) {
	return nil, &apierror.RequestError{Service: "bybit", Op: "test", Err: context.DeadlineExceeded}
}
