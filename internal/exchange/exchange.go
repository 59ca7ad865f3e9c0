package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mosolohq/mosolo/config"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Quote is the result of a rate lookup. Degraded means the feed could not be
// reached (timeout, bad status, malformed payload, unknown pair) and the rate
// fell back to 1: the transfer proceeds unconverted, and the flag is threaded
// onto both ledger entries and the caller's receipt so the fallback is never
// hidden.
type Quote struct {
	From     string
	To       string
	Rate     decimal.Decimal
	Degraded bool
}

// RateSource is what the ledger mutator depends on. It deliberately cannot
// fail: every implementation degrades instead of erroring.
type RateSource interface {
	Quote(ctx context.Context, from, to string) Quote
}

// FeedClient queries an external HTTP rate feed with a bounded timeout.
type FeedClient struct {
	url    string
	client *http.Client
}

// NewFeedClient builds a client from configuration. The timeout bounds every
// lookup; a slow feed degrades the quote rather than stalling a transfer.
func NewFeedClient(cfg *config.Configuration) *FeedClient {
	timeout := time.Duration(cfg.Exchange.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &FeedClient{
		url:    cfg.Exchange.FeedURL,
		client: &http.Client{Timeout: timeout},
	}
}

type feedResponse struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

func (c *FeedClient) fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s?base=%s&symbols=%s", c.url, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "building rate feed request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "calling rate feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, errors.Wrap(err, "decoding rate feed payload")
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate feed has no %s/%s pair", from, to)
	}

	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parsing rate %q", raw.String())
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("rate feed returned non-positive rate %s for %s/%s", rate, from, to)
	}

	return rate, nil
}

// Quote looks up from→to. Identical currencies short-circuit to rate 1
// without touching the feed.
func (c *FeedClient) Quote(ctx context.Context, from, to string) Quote {
	if from == to {
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1)}
	}

	rate, err := c.fetch(ctx, from, to)
	if err != nil {
		logrus.WithFields(logrus.Fields{"from": from, "to": to}).
			Warnf("rate feed unavailable, degrading to 1:1: %v", err)
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1), Degraded: true}
	}

	return Quote{From: from, To: to, Rate: rate}
}

// Static is a fixed-rate source for tests and local development.
type Static struct {
	Rates map[string]decimal.Decimal // keyed "FROM/TO"
}

func (s Static) Quote(_ context.Context, from, to string) Quote {
	if from == to {
		return Quote{From: from, To: to, Rate: decimal.NewFromInt(1)}
	}
	if rate, ok := s.Rates[from+"/"+to]; ok {
		return Quote{From: from, To: to, Rate: rate}
	}
	return Quote{From: from, To: to, Rate: decimal.NewFromInt(1), Degraded: true}
}
