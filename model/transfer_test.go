package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConvertMinor(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   string
		from   string
		to     string
		want   int64
	}{
		{name: "identity rate", amount: 30000, rate: "1", from: "CDF", to: "CDF", want: 30000},
		{name: "usd to cdf at 2500", amount: 1000, rate: "2500", from: "USD", to: "CDF", want: 2500000},
		{name: "cdf to usd at 0.0004", amount: 2500000, rate: "0.0004", from: "CDF", to: "USD", want: 1000},
		{name: "sub-unit remainder truncates", amount: 1, rate: "0.0004", from: "CDF", to: "USD", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			assert.NoError(t, err)
			got := ConvertMinor(tt.amount, rate, tt.from, tt.to)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorUnitRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("10.50")
	minor := ToMinorUnits(amount, "USD")
	assert.Equal(t, int64(1050), minor)
	assert.True(t, amount.Equal(FromMinorUnits(minor, "USD")))
}

func TestBuildEntriesSameCurrency(t *testing.T) {
	now := time.Now()
	sender := &Account{AccountID: "acc_sender", Name: "Amani K", Currency: "CDF", Balance: 100000}
	recipient := &Account{AccountID: "acc_recipient", Name: "Bisa M", Currency: "CDF", Balance: 50000}

	conv := Conversion{
		SettlementAmount:   30000,
		SettlementCurrency: "CDF",
		RecipientAmount:    30000,
		Rate:               decimal.NewFromInt(1),
	}

	sent, received := BuildEntries(sender, recipient, 30000, conv, "lunch", now)

	assert.Equal(t, int64(70000), sender.Balance)
	assert.Equal(t, int64(80000), recipient.Balance)

	assert.Equal(t, sent.TransferID, received.TransferID)
	assert.Equal(t, DirectionSent, sent.Direction)
	assert.Equal(t, DirectionReceived, received.Direction)
	assert.Equal(t, sent.SettlementAmount, received.SettlementAmount)
	assert.Equal(t, int64(100000), sent.BalanceBefore)
	assert.Equal(t, int64(70000), sent.BalanceAfter)
	assert.Equal(t, int64(50000), received.BalanceBefore)
	assert.Equal(t, int64(80000), received.BalanceAfter)
	assert.Equal(t, StatusCompleted, sent.Status)
	assert.Equal(t, "acc_recipient", sent.CounterpartyID)
	assert.Equal(t, "acc_sender", received.CounterpartyID)
}

func TestBuildEntriesCrossCurrencyZeroSum(t *testing.T) {
	now := time.Now()
	sender := &Account{AccountID: "acc_usd", Name: "Chantal", Currency: "USD", Balance: 10000}
	recipient := &Account{AccountID: "acc_cdf", Name: "Didier", Currency: "CDF", Balance: 0}

	// 10 USD at 2500 CDF/USD through a CDF settlement leg.
	conv := Conversion{
		SettlementAmount:   2500000,
		SettlementCurrency: "CDF",
		RecipientAmount:    2500000,
		Rate:               decimal.NewFromInt(2500),
	}

	sent, received := BuildEntries(sender, recipient, 1000, conv, "", now)

	assert.Equal(t, int64(9000), sender.Balance)
	assert.Equal(t, int64(2500000), recipient.Balance)
	assert.Equal(t, sent.SettlementAmount, received.SettlementAmount)
	assert.Equal(t, "CDF", sent.SettlementCurrency)
	assert.Equal(t, int64(1000), sent.Amount)
	assert.Equal(t, int64(2500000), received.Amount)
}

func TestParseTransferMethod(t *testing.T) {
	for _, valid := range []string{"card", "account", "email", "phone", "bluetooth", "wifi", " Email "} {
		m, err := ParseTransferMethod(valid)
		assert.NoError(t, err, valid)
		assert.NotEmpty(t, m)
	}

	_, err := ParseTransferMethod("carrier-pigeon")
	assert.Error(t, err)

	assert.True(t, MethodBluetooth.Proximity())
	assert.True(t, MethodWifi.Proximity())
	assert.False(t, MethodEmail.Proximity())
}

func TestAccountDebitCredit(t *testing.T) {
	now := time.Now()
	acc := &Account{Balance: 500}
	assert.True(t, acc.CanDebit(500))
	assert.False(t, acc.CanDebit(501))

	acc.Debit(200, now)
	assert.Equal(t, int64(300), acc.Balance)
	assert.Equal(t, now, acc.LastActivityAt)

	acc.Credit(700, now)
	assert.Equal(t, int64(1000), acc.Balance)
}
