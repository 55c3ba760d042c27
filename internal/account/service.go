// Package account reads balance, open positions and closed PnL for one
// Bybit account through the signed REST client.
package account

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"bybitnotifier/pkg/apierror"
	"bybitnotifier/pkg/bybit"

	"github.com/pkg/errors"
)

// Requester is satisfied by *bybit.RESTClient.
type Requester interface {
	Request(ctx context.Context, endpoint, query string) (*bybit.Envelope, error)
}

type Service struct {
	client      Requester
	accountType string
}

func NewService(client Requester, accountType string) *Service {
	return &Service{client: client, accountType: accountType}
}

// AccountType is the wallet account type queried for the balance.
func (s *Service) AccountType() string {
	return s.accountType
}

// GetBalance returns totalEquity of the first wallet entry.
func (s *Service) GetBalance(ctx context.Context) (float64, error) {
	query := "accountType=" + url.QueryEscape(s.accountType)

	env, err := s.client.Request(ctx, bybit.EndpointWalletBalance, query)
	if err != nil {
		return 0, errors.Wrap(err, "get balance")
	}

	result, err := env.List()
	if err != nil {
		return 0, errors.Wrap(parseError("wallet result", err), "get balance")
	}
	if len(result.List) == 0 {
		return 0, errors.Wrap(&apierror.ParseError{Service: "bybit", Reason: "no data: wallet list is empty"}, "get balance")
	}

	raw, err := result.List[0].Field(bybit.FieldTotalEquity)
	if err != nil {
		return 0, errors.Wrap(parseError("malformed data", err), "get balance")
	}
	balance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(parseError("malformed data: totalEquity "+strconv.Quote(raw), err), "get balance")
	}

	return balance, nil
}

// GetPositions returns up to limit open USDT-settled linear positions, unmodified.
func (s *Service) GetPositions(ctx context.Context, limit int) ([]bybit.Item, error) {
	if err := checkLimit(limit); err != nil {
		return nil, errors.Wrap(err, "get positions")
	}
	query := fmt.Sprintf("category=%s&settleCoin=%s&limit=%d", bybit.CategoryLinear, bybit.SettleCoinUSDT, limit)

	items, err := s.list(ctx, bybit.EndpointPositionList, query)
	if err != nil {
		return nil, errors.Wrap(err, "get positions")
	}
	return items, nil
}

// GetClosedPnl returns the limit most recent closed-PnL records. limit caps
// the record count, not a time window.
func (s *Service) GetClosedPnl(ctx context.Context, limit int) ([]bybit.Item, error) {
	if err := checkLimit(limit); err != nil {
		return nil, errors.Wrap(err, "get closed pnl")
	}
	query := fmt.Sprintf("category=%s&limit=%d", bybit.CategoryLinear, limit)

	items, err := s.list(ctx, bybit.EndpointClosedPnl, query)
	if err != nil {
		return nil, errors.Wrap(err, "get closed pnl")
	}
	return items, nil
}

func (s *Service) list(ctx context.Context, endpoint, query string) ([]bybit.Item, error) {
	env, err := s.client.Request(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	result, err := env.List()
	if err != nil {
		return nil, parseError(endpoint+" result", err)
	}
	return result.List, nil
}

func checkLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	return nil
}

func parseError(reason string, err error) error {
	return &apierror.ParseError{Service: "bybit", Reason: reason, Err: err}
}
