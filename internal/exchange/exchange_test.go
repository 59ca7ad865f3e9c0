package exchange

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/mosolohq/mosolo/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestFeed(t *testing.T) *FeedClient {
	t.Helper()
	cfg := &config.Configuration{
		Exchange: config.ExchangeConfig{
			FeedURL:   "https://rates.example.com/latest",
			TimeoutMS: 500,
		},
	}
	c := NewFeedClient(cfg)
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestQuoteHappyPath(t *testing.T) {
	c := newTestFeed(t)
	httpmock.RegisterResponder("GET", "https://rates.example.com/latest?base=USD&symbols=CDF",
		httpmock.NewStringResponder(200, `{"base":"USD","rates":{"CDF":2500}}`))

	q := c.Quote(context.Background(), "USD", "CDF")
	assert.False(t, q.Degraded)
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(2500)), q.Rate.String())
}

func TestQuoteSameCurrencySkipsFeed(t *testing.T) {
	c := newTestFeed(t)
	// No responder registered; a feed call would fail the test via degradation.
	q := c.Quote(context.Background(), "CDF", "CDF")
	assert.False(t, q.Degraded)
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestQuoteDegradesOnFeedError(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{name: "bad status", responder: httpmock.NewStringResponder(500, "boom")},
		{name: "malformed payload", responder: httpmock.NewStringResponder(200, "not-json")},
		{name: "unknown pair", responder: httpmock.NewStringResponder(200, `{"base":"USD","rates":{}}`)},
		{name: "non-positive rate", responder: httpmock.NewStringResponder(200, `{"base":"USD","rates":{"CDF":0}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestFeed(t)
			httpmock.RegisterResponder("GET", "https://rates.example.com/latest?base=USD&symbols=CDF", tt.responder)

			q := c.Quote(context.Background(), "USD", "CDF")
			assert.True(t, q.Degraded)
			assert.True(t, q.Rate.Equal(decimal.NewFromInt(1)))
		})
	}
}

func TestQuoteDegradesWhenUnreachable(t *testing.T) {
	c := newTestFeed(t)
	httpmock.RegisterResponder("GET", "https://rates.example.com/latest?base=USD&symbols=CDF",
		httpmock.NewErrorResponder(assert.AnError))

	q := c.Quote(context.Background(), "USD", "CDF")
	assert.True(t, q.Degraded)
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(1)))
}

func TestStaticSource(t *testing.T) {
	s := Static{Rates: map[string]decimal.Decimal{"USD/CDF": decimal.NewFromInt(2500)}}

	q := s.Quote(context.Background(), "USD", "CDF")
	assert.False(t, q.Degraded)
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(2500)))

	q = s.Quote(context.Background(), "USD", "EUR")
	assert.True(t, q.Degraded)
}
