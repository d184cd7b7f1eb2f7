package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate("../../migrations"))
	return st
}

func seedCustomer(t *testing.T, st *Store) int {
	t.Helper()
	c := models.Customer{Name: "Sam Bell", Email: "Sam@Example.com"}
	require.NoError(t, st.CreateCustomer(context.Background(), &c))
	return c.ID
}

func insertOrder(t *testing.T, st *Store, customerID int, orderNumber string) {
	t.Helper()
	err := st.CreateOrder(context.Background(), &models.Order{
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		Quantity:      1,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
	})
	require.NoError(t, err)
}

func TestGetCustomerByEmailCaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	id := seedCustomer(t, st)

	c, err := st.GetCustomerByEmail(context.Background(), "sam@example.COM")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, id, c.ID)

	missing, err := st.GetCustomerByEmail(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMaxOrderNumberSuffix(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedCustomer(t, st)

	max, err := st.MaxOrderNumberSuffix(ctx, "V-B26")
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	insertOrder(t, st, id, "V-B260001")
	insertOrder(t, st, id, "V-B260007")
	// A different month must not leak into the scope.
	insertOrder(t, st, id, "V-C260042")

	max, err = st.MaxOrderNumberSuffix(ctx, "V-B26")
	require.NoError(t, err)
	assert.Equal(t, 7, max)

	max, err = st.MaxOrderNumberSuffix(ctx, "V-C26")
	require.NoError(t, err)
	assert.Equal(t, 42, max)
}

func TestMaxQuoteNumberSuffix(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedCustomer(t, st)

	q := models.Quote{CustomerID: id, Status: models.QuoteNew}
	require.NoError(t, st.CreateQuote(ctx, &q))
	_, err := st.DB.ExecContext(ctx, `UPDATE quotes SET order_number = 'V-B260005' WHERE id = ?`, q.ID)
	require.NoError(t, err)

	max, err := st.MaxQuoteNumberSuffix(ctx, "V-B26")
	require.NoError(t, err)
	assert.Equal(t, 5, max)

	// Quotes with no mirrored number don't participate.
	max, err = st.MaxQuoteNumberSuffix(ctx, "V-A26")
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}

func TestBackfillQuoteNumbers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedCustomer(t, st)

	q := models.Quote{CustomerID: id, Status: models.QuoteAccepted}
	require.NoError(t, st.CreateQuote(ctx, &q))
	require.NoError(t, st.CreateOrder(ctx, &models.Order{
		OrderNumber:   "V-B260009",
		CustomerID:    id,
		QuoteID:       &q.ID,
		Quantity:      1,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
	}))
	// Rows promoted by the previous system never got the mirror.
	_, err := st.DB.ExecContext(ctx, `UPDATE quotes SET order_number = NULL WHERE id = ?`, q.ID)
	require.NoError(t, err)

	n, err := st.BackfillQuoteNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetQuoteByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "V-B260009", got.OrderNumber)

	// Running it again is a no-op.
	n, err = st.BackfillQuoteNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIsUniqueViolation(t *testing.T) {
	st := newTestStore(t)
	id := seedCustomer(t, st)
	insertOrder(t, st, id, "V-B260001")

	err := st.CreateOrder(context.Background(), &models.Order{
		OrderNumber:   "V-B260001",
		CustomerID:    id,
		Quantity:      1,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, "orders.order_number"))
	assert.False(t, IsUniqueViolation(err, "orders.quote_id"))
	assert.False(t, IsUniqueViolation(nil, "orders.order_number"))
}

func TestQuoteIDUniqueAllowsMultipleNulls(t *testing.T) {
	st := newTestStore(t)
	id := seedCustomer(t, st)

	// Direct orders carry no quote_id; the UNIQUE constraint must not
	// treat their NULLs as duplicates.
	insertOrder(t, st, id, "V-B260001")
	insertOrder(t, st, id, "V-B260002")

	count, err := st.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLegacyStatusNormalizedOnRead(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedCustomer(t, st)

	q := models.Quote{CustomerID: id, Status: models.QuoteNew}
	require.NoError(t, st.CreateQuote(ctx, &q))
	// Rows written by the previous system carry synonym statuses.
	_, err := st.DB.ExecContext(ctx, `UPDATE quotes SET status = 'approved' WHERE id = ?`, q.ID)
	require.NoError(t, err)

	got, err := st.GetQuoteByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteAccepted, got.Status)
}

func TestUpsertMagicTokenOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	first := &models.MagicToken{PrincipalType: models.PrincipalAdmin, PrincipalID: 1, Token: "tok-one", ExpiresAt: now.Add(15 * time.Minute)}
	require.NoError(t, st.UpsertMagicToken(ctx, first))

	second := &models.MagicToken{PrincipalType: models.PrincipalAdmin, PrincipalID: 1, Token: "tok-two", ExpiresAt: now.Add(15 * time.Minute)}
	require.NoError(t, st.UpsertMagicToken(ctx, second))

	got, err := st.GetMagicToken(ctx, models.PrincipalAdmin, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-two", got.Token)

	// Separate principal scopes hold independent tokens.
	other := &models.MagicToken{PrincipalType: models.PrincipalCustomer, PrincipalID: 1, Token: "tok-cust", ExpiresAt: now.Add(15 * time.Minute)}
	require.NoError(t, st.UpsertMagicToken(ctx, other))
	got, err = st.GetMagicToken(ctx, models.PrincipalAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok-two", got.Token)
}

func TestDeleteExpiredSessions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	live := &models.Session{ID: "live", PrincipalType: models.PrincipalAdmin, PrincipalID: 1, ExpiresAt: now.Add(time.Hour)}
	dead := &models.Session{ID: "dead", PrincipalType: models.PrincipalAdmin, PrincipalID: 1, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, st.CreateSession(ctx, live))
	require.NoError(t, st.CreateSession(ctx, dead))

	n, err := st.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := st.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)
	gone, err := st.GetSession(ctx, "dead")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
