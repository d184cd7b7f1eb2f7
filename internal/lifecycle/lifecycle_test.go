package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamacoid/Vurmz.com-sub003/internal/mailer"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/ordernum"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

var testTime = time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *mailer.Recorder) {
	t.Helper()

	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate("../../migrations"))

	rec := &mailer.Recorder{}
	now := func() time.Time { return testTime }
	svc := NewService(st, rec, ordernum.NewAllocator(st, now), "http://localhost:8585", "Vurmz <orders@vurmz.com>")
	svc.Now = now
	return svc, st, rec
}

func submitQuote(t *testing.T, svc *Service, email string) *models.Quote {
	t.Helper()
	q, err := svc.SubmitQuote(context.Background(),
		models.Customer{Name: "Sam Bell", Email: email},
		models.Quote{ProductType: "name plates", Quantity: "15", Description: "Walnut desk plates", DeliveryMethod: "pickup"},
	)
	require.NoError(t, err)
	return q
}

func quotedQuote(t *testing.T, svc *Service, email string) *models.Quote {
	t.Helper()
	q := submitQuote(t, svc, email)
	q, _, err := svc.SendQuote(context.Background(), q.ID, 125.50, "")
	require.NoError(t, err)
	return q
}

func TestSubmitQuoteCreatesCustomerAndQuote(t *testing.T) {
	svc, _, _ := newTestService(t)

	q := submitQuote(t, svc, "sam@example.com")
	assert.Equal(t, models.QuoteNew, q.Status)
	assert.Equal(t, "Sam Bell", q.CustomerName)
	assert.Equal(t, "sam@example.com", q.CustomerEmail)
}

func TestSubmitQuoteReusesCustomerByEmail(t *testing.T) {
	svc, st, _ := newTestService(t)

	q1 := submitQuote(t, svc, "sam@example.com")
	q2 := submitQuote(t, svc, "sam@example.com")
	assert.Equal(t, q1.CustomerID, q2.CustomerID)

	count, err := st.CountCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSendQuoteRejectsNonPositivePrice(t *testing.T) {
	svc, _, rec := newTestService(t)
	q := submitQuote(t, svc, "sam@example.com")

	_, _, err := svc.SendQuote(context.Background(), q.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, _, err = svc.SendQuote(context.Background(), q.ID, -10, "")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Empty(t, rec.Messages())
}

func TestSendQuoteMovesToQuotedAndNotifies(t *testing.T) {
	svc, _, rec := newTestService(t)
	q := submitQuote(t, svc, "sam@example.com")

	updated, notified, err := svc.SendQuote(context.Background(), q.ID, 125.50, "Includes engraving setup")
	require.NoError(t, err)

	assert.True(t, notified)
	assert.Equal(t, models.QuoteQuoted, updated.Status)
	assert.Equal(t, 125.50, updated.Price)
	assert.NotEmpty(t, updated.CustomerToken)
	require.NotNil(t, updated.ResponseSentAt)
	assert.True(t, updated.ResponseSentAt.Equal(testTime))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "sam@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Text, "/quote/"+updated.CustomerToken)
}

func TestSendQuoteEmailFailureStillSaves(t *testing.T) {
	svc, st, rec := newTestService(t)
	q := submitQuote(t, svc, "sam@example.com")
	rec.Err = errors.New("smtp down")

	updated, notified, err := svc.SendQuote(context.Background(), q.ID, 80, "")
	require.NoError(t, err)
	assert.False(t, notified)

	// The write landed even though the email did not.
	reloaded, err := st.GetQuoteByID(context.Background(), updated.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteQuoted, reloaded.Status)
}

func TestSendQuoteResendKeepsToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")
	first := q.CustomerToken

	again, _, err := svc.SendQuote(context.Background(), q.ID, 140, "revised")
	require.NoError(t, err)
	assert.Equal(t, first, again.CustomerToken)
}

func TestAcceptQuote(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	accepted, err := svc.AcceptQuote(context.Background(), q.CustomerToken)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
}

func TestAcceptQuoteTwiceIsDistinctError(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	_, err := svc.AcceptQuote(context.Background(), q.CustomerToken)
	require.NoError(t, err)

	_, err = svc.AcceptQuote(context.Background(), q.CustomerToken)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)

	// Declining after acceptance reports the same conflict, not a
	// generic failure.
	_, err = svc.DeclineQuote(context.Background(), q.CustomerToken)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}

func TestDeclineQuote(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	declined, err := svc.DeclineQuote(context.Background(), q.CustomerToken)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteDeclined, declined.Status)

	_, err = svc.AcceptQuote(context.Background(), q.CustomerToken)
	assert.ErrorIs(t, err, ErrNotQuoted)
}

func TestDecisionUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AcceptQuote(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AcceptQuote(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecisionExpiredToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	svc.Now = func() time.Time { return testTime.Add(QuoteTokenTTL + time.Second) }
	_, err := svc.AcceptQuote(context.Background(), q.CustomerToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestPromoteQuote(t *testing.T) {
	svc, st, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{Material: "walnut"})
	require.NoError(t, err)

	assert.Equal(t, "V-B260001", order.OrderNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, 125.50, order.Price) // quoted price carried over
	assert.Equal(t, 15, order.Quantity)  // salvaged from the free-text "15"
	assert.Equal(t, "pickup", order.DeliveryMethod)
	require.NotNil(t, order.QuoteID)
	assert.Equal(t, q.ID, *order.QuoteID)

	// The quote mirrors the order number and flips to accepted.
	reloaded, err := st.GetQuoteByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteAccepted, reloaded.Status)
	assert.Equal(t, "V-B260001", reloaded.OrderNumber)

	activity, err := st.ListOrderActivity(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, string(models.OrderPending), activity[0].To)
}

func TestPromoteQuoteIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	_, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)

	_, err = svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	assert.ErrorIs(t, err, ErrAlreadyPromoted)
}

func TestPromoteQuoteRejectsDeclined(t *testing.T) {
	svc, _, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")

	_, err := svc.DeclineQuote(context.Background(), q.CustomerToken)
	require.NoError(t, err)

	_, err = svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	assert.ErrorIs(t, err, ErrNotQuoted)
}

func TestPromoteQuoteNonNumericQuantityDefaultsToOne(t *testing.T) {
	svc, _, _ := newTestService(t)
	q, err := svc.SubmitQuote(context.Background(),
		models.Customer{Name: "Sam Bell", Email: "sam@example.com"},
		models.Quote{ProductType: "tags", Quantity: "a dozen or so"},
	)
	require.NoError(t, err)
	q, _, err = svc.SendQuote(context.Background(), q.ID, 60, "")
	require.NoError(t, err)

	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, order.Quantity)
}

func TestOrderNumbersSequenceAcrossPromotions(t *testing.T) {
	svc, _, _ := newTestService(t)

	q1 := quotedQuote(t, svc, "a@example.com")
	q2 := quotedQuote(t, svc, "b@example.com")

	o1, err := svc.PromoteQuote(context.Background(), q1.ID, PromoteInput{})
	require.NoError(t, err)
	o2, err := svc.PromoteQuote(context.Background(), q2.ID, PromoteInput{})
	require.NoError(t, err)

	assert.Equal(t, "V-B260001", o1.OrderNumber)
	// The second allocation sees V-B260001 both in orders and mirrored
	// on the first quote; either way the max is 1.
	assert.Equal(t, "V-B260002", o2.OrderNumber)
}

func TestCreateOrderDirect(t *testing.T) {
	svc, st, _ := newTestService(t)
	submitQuote(t, svc, "walkin@example.com") // just to create the customer

	customer, err := st.GetCustomerByEmail(context.Background(), "walkin@example.com")
	require.NoError(t, err)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:         customer.ID,
		ProjectDescription: "Engraved sign",
		Price:              200,
	})
	require.NoError(t, err)
	assert.Equal(t, "V-B260001", order.OrderNumber)
	assert.Nil(t, order.QuoteID)
	assert.Equal(t, 1, order.Quantity)
}

func TestChangeOrderStatus(t *testing.T) {
	svc, st, rec := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")
	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)
	sentBefore := len(rec.Messages())

	change, err := svc.ChangeOrderStatus(context.Background(), order.ID, models.OrderInProgress, true)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, change.Order.Status)
	assert.True(t, change.Notified)
	assert.Len(t, rec.Messages(), sentBefore+1)

	change, err = svc.ChangeOrderStatus(context.Background(), order.ID, models.OrderCompleted, false)
	require.NoError(t, err)
	require.NotNil(t, change.Order.CompletedAt)
	assert.False(t, change.Notified)

	// Reopening clears the completion stamp.
	change, err = svc.ChangeOrderStatus(context.Background(), order.ID, models.OrderPending, false)
	require.NoError(t, err)
	assert.Nil(t, change.Order.CompletedAt)

	activity, err := st.ListOrderActivity(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, activity, 4) // creation + three transitions
}

func TestChangeOrderStatusInvalid(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ChangeOrderStatus(context.Background(), 1, models.OrderStatus("shipped"), false)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestChangeOrderStatusNotificationFailureIsIsolated(t *testing.T) {
	svc, st, rec := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")
	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)

	rec.Err = errors.New("smtp down")
	change, err := svc.ChangeOrderStatus(context.Background(), order.ID, models.OrderCompleted, true)
	require.NoError(t, err)
	assert.False(t, change.Notified)

	reloaded, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, reloaded.Status)
}

func TestMarkPaidCreatesReceipt(t *testing.T) {
	svc, st, _ := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")
	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)

	receipt, err := st.LatestReceiptByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, order.Price, receipt.Amount)
	assert.True(t, strings.HasPrefix(receipt.ReceiptNumber, "R-20260210-"))
	assert.Nil(t, receipt.SentAt) // payment does not imply the email went out

	// Paying again does not mint a second receipt.
	_, err = svc.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	again, err := st.LatestReceiptByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, again.ID)
}

func TestResendReceipt(t *testing.T) {
	svc, st, rec := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")
	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	sentBefore := len(rec.Messages())

	updated, err := svc.ResendReceipt(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ReceiptSentAt)
	assert.Len(t, rec.Messages(), sentBefore+1)

	receipt, err := st.LatestReceiptByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, receipt.SentAt)
}

func TestResendReceiptSendFailureIsReturned(t *testing.T) {
	svc, st, rec := newTestService(t)
	q := quotedQuote(t, svc, "sam@example.com")
	order, err := svc.PromoteQuote(context.Background(), q.ID, PromoteInput{})
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)

	rec.Err = errors.New("smtp down")
	_, err = svc.ResendReceipt(context.Background(), order.ID)
	require.Error(t, err)

	// No timestamps are stamped on failure.
	reloaded, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ReceiptSentAt)
	receipt, err := st.LatestReceiptByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, receipt.SentAt)
}

func TestResendReceiptRequiresEmail(t *testing.T) {
	svc, st, _ := newTestService(t)

	customer := models.Customer{Name: "No Email"}
	require.NoError(t, st.CreateCustomer(context.Background(), &customer))
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{CustomerID: customer.ID, Price: 50})
	require.NoError(t, err)

	_, err = svc.ResendReceipt(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrNoCustomerEmail)
}
