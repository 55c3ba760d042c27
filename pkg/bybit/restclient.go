package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"bybitnotifier/pkg/apierror"

	"golang.org/x/time/rate"
)

// Credentials authenticate private requests. The secret is used only for signing.
type Credentials struct {
	APIKey    string
	APISecret []byte
}

// RESTClient sends signed GET requests to the V5 API. It keeps no per-call
// state, so one instance can serve concurrent requests.
type RESTClient struct {
	baseURL    string
	creds      Credentials
	recvWindow string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option customises a RESTClient.
type Option func(*RESTClient)

// WithRecvWindow overrides DefaultRecvWindow.
func WithRecvWindow(w string) Option {
	return func(c *RESTClient) {
		if w != "" {
			c.recvWindow = w
		}
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *RESTClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithClock replaces time.Now for timestamping requests.
func WithClock(now func() time.Time) Option {
	return func(c *RESTClient) { c.now = now }
}

func NewRESTClient(baseURL string, timeout time.Duration, creds Credentials, opts ...Option) *RESTClient {
	c := &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		recvWindow: DefaultRecvWindow,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// Request signs and sends GET <base>/<endpoint>?<query> and returns the
// envelope when retCode is 0. query must already be percent-encoded and in
// the order it should be signed.
func (c *RESTClient) Request(ctx context.Context, endpoint, query string) (*Envelope, error) {
	if endpoint == "" {
		return nil, errors.New("bybit: empty endpoint")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &apierror.RequestError{Service: serviceName, Op: endpoint, Err: err}
		}
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if query != "" {
		url += "?" + query
	}

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &apierror.RequestError{Service: serviceName, Op: endpoint, Err: err}
	}

	timestamp := Timestamp(c.now())
	req.Header.Set(HeaderAPIKey, c.creds.APIKey)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderRecvWindow, c.recvWindow)
	req.Header.Set(HeaderSign, Sign(c.creds.APISecret, timestamp, c.creds.APIKey, c.recvWindow, query))

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierror.RequestError{Service: serviceName, Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierror.RequestError{Service: serviceName, Op: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	// Check HTTP status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierror.RequestError{
			Service:    serviceName,
			Op:         endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return DecodeEnvelope(body)
}

// DecodeEnvelope parses a V5 response body and turns a non-zero or missing
// retCode into an *apierror.APIError.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &apierror.ParseError{Service: serviceName, Reason: "decode envelope", Body: string(body), Err: err}
	}

	if env.RetCode == nil {
		msg := env.RetMsg
		if msg == "" {
			msg = "retCode missing from response"
		}
		return nil, &apierror.APIError{Service: serviceName, Code: apierror.CodeMissing, Message: msg}
	}
	if *env.RetCode != 0 {
		return nil, &apierror.APIError{Service: serviceName, Code: *env.RetCode, Message: env.RetMsg}
	}

	return &env, nil
}
