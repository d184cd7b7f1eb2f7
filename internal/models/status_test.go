package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuoteStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want QuoteStatus
	}{
		{"new", QuoteNew},
		{"", QuoteNew},
		{"complete", QuoteCompleted},
		{"completed", QuoteCompleted},
		{"approved", QuoteAccepted},
		{"accepted", QuoteAccepted},
		{"In-Progress", QuoteInProgress},
		{"  Quoted ", QuoteQuoted},
		{"PENDING_APPROVAL", QuotePendingApproval},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeQuoteStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestQuoteStatusValid(t *testing.T) {
	assert.True(t, QuoteNew.Valid())
	assert.True(t, QuoteDeclined.Valid())
	assert.False(t, QuoteStatus("shipped").Valid())
	assert.False(t, QuoteStatus("").Valid())
}

func TestQuoteStatusTerminal(t *testing.T) {
	assert.True(t, QuoteDeclined.Terminal())
	assert.True(t, QuoteCompleted.Terminal())
	assert.False(t, QuoteQuoted.Terminal())
	assert.False(t, QuoteAccepted.Terminal())
}

func TestNormalizeOrderStatus(t *testing.T) {
	assert.Equal(t, OrderCompleted, NormalizeOrderStatus("Complete"))
	assert.Equal(t, OrderCompleted, NormalizeOrderStatus("completed"))
	assert.Equal(t, OrderInProgress, NormalizeOrderStatus("in-progress"))
	assert.Equal(t, OrderPending, NormalizeOrderStatus(""))
}

func TestNormalizePaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentPaid, NormalizePaymentStatus("PAID "))
	assert.Equal(t, PaymentUnpaid, NormalizePaymentStatus("unpaid"))
	assert.Equal(t, PaymentUnpaid, NormalizePaymentStatus("anything else"))
}
