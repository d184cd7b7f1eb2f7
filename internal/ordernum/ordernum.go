// Package ordernum allocates the human-facing identifiers: sequential
// month-scoped order numbers and random receipt numbers.
package ordernum

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

// Sequences exposes the two number sequences an order number may
// already live in. Quotes can carry a pre-allocated display number, so
// consulting only the orders table under-counts and risks duplicates;
// both maxima are always checked.
type Sequences interface {
	MaxOrderNumberSuffix(ctx context.Context, prefix string) (int, error)
	MaxQuoteNumberSuffix(ctx context.Context, prefix string) (int, error)
}

type Allocator struct {
	seq Sequences
	now func() time.Time
}

func NewAllocator(seq Sequences, now func() time.Time) *Allocator {
	if now == nil {
		now = time.Now
	}
	return &Allocator{seq: seq, now: now}
}

// Prefix returns the current month scope, e.g. "V-B26" for February
// 2026. January maps to A, December to L.
func Prefix(t time.Time) string {
	letter := byte('A' + int(t.Month()) - 1)
	return fmt.Sprintf("V-%c%02d", letter, t.Year()%100)
}

// Next produces the next order number in the format
// V-{MonthLetter}{YY}{Seq:04d}. Two concurrent calls can still compute
// the same number; the UNIQUE constraint on orders.order_number plus
// the caller's retry closes that race.
//
// The 4-digit counter tops out at 9999 orders in one month. That is an
// accepted capacity ceiling at this volume, not defended against.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	prefix := Prefix(a.now())

	fromOrders, err := a.seq.MaxOrderNumberSuffix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scan orders sequence: %w", err)
	}
	fromQuotes, err := a.seq.MaxQuoteNumberSuffix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scan quotes sequence: %w", err)
	}

	next := fromOrders
	if fromQuotes > next {
		next = fromQuotes
	}
	next++

	return fmt.Sprintf("%s%04d", prefix, next), nil
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReceiptNumber produces R-{YYYYMMDD}-{4 base36 chars}. Receipts are
// optimized for human scanability, not sequentiality; collisions are
// not checked and are acceptable at this volume.
func ReceiptNumber(now time.Time) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Degrade to a time-derived suffix rather than fail the receipt.
		return "R-" + now.Format("20060102") + "-" + strconv.FormatInt(now.UnixNano()%1679616, 36)
	}
	for i := range b {
		b[i] = base36[int(b[i])%len(base36)]
	}
	return "R-" + now.Format("20060102") + "-" + string(b)
}
