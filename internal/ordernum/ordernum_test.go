package ordernum

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSequences struct {
	orders map[string]int
	quotes map[string]int
}

func (f *fakeSequences) MaxOrderNumberSuffix(_ context.Context, prefix string) (int, error) {
	return f.orders[prefix], nil
}

func (f *fakeSequences) MaxQuoteNumberSuffix(_ context.Context, prefix string) (int, error) {
	return f.quotes[prefix], nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), "V-A26"},
		{time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), "V-B26"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "V-L25"},
		{time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC), "V-F30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Prefix(tt.date))
	}
}

func TestNextFirstOfMonth(t *testing.T) {
	seq := &fakeSequences{orders: map[string]int{}, quotes: map[string]int{}}
	alloc := NewAllocator(seq, fixedNow(time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)))

	num, err := alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "V-B260001", num)
}

func TestNextContinuesOrderSequence(t *testing.T) {
	seq := &fakeSequences{
		orders: map[string]int{"V-B26": 12},
		quotes: map[string]int{},
	}
	alloc := NewAllocator(seq, fixedNow(time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)))

	num, err := alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "V-B260013", num)
}

func TestNextConsidersQuoteSequence(t *testing.T) {
	// A quote carrying V-B260007 must push the next order past it even
	// when the orders table only reaches 0003.
	seq := &fakeSequences{
		orders: map[string]int{"V-B26": 3},
		quotes: map[string]int{"V-B26": 7},
	}
	alloc := NewAllocator(seq, fixedNow(time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)))

	num, err := alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "V-B260008", num)
}

func TestNextResetsEachMonth(t *testing.T) {
	seq := &fakeSequences{
		orders: map[string]int{"V-B26": 42},
		quotes: map[string]int{},
	}
	alloc := NewAllocator(seq, fixedNow(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))

	num, err := alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "V-C260001", num)
}

func TestReceiptNumberFormat(t *testing.T) {
	now := time.Date(2026, time.July, 4, 12, 0, 0, 0, time.UTC)
	rn := ReceiptNumber(now)

	require.True(t, strings.HasPrefix(rn, "R-20260704-"), "got %q", rn)
	suffix := strings.TrimPrefix(rn, "R-20260704-")
	assert.Len(t, suffix, 4)
	for _, r := range suffix {
		assert.Contains(t, base36, string(r))
	}
}

func TestReceiptNumberVaries(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[ReceiptNumber(now)] = true
	}
	// Random suffixes may collide occasionally, but 20 identical draws
	// would mean the RNG is not being consulted at all.
	assert.Greater(t, len(seen), 1)
}
