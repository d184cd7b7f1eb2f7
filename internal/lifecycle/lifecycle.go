// Package lifecycle governs the quote → order state machine and the
// side effects that accompany each transition.
//
// Notification dispatch is fire-and-forget relative to the state
// mutation: the database write lands first, and a failed email is
// logged and reported through the Notified flag, never as a transition
// failure. "Status was changed" is the only guaranteed invariant;
// "customer was notified" is not.
package lifecycle

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lamacoid/Vurmz.com-sub003/internal/mailer"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/ordernum"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

// QuoteTokenTTL bounds how long a quote's viewing/decision link stays
// live. After a decision the token keeps serving the read-only quote
// view but can no longer change state.
const QuoteTokenTTL = 30 * 24 * time.Hour

// allocRetries bounds the retry loop when two promotions race to the
// same order number and the UNIQUE constraint rejects the loser.
const allocRetries = 5

type Service struct {
	Store   *store.Store
	Mailer  mailer.Sender
	Alloc   *ordernum.Allocator
	BaseURL string
	From    string
	Now     func() time.Time
}

func NewService(st *store.Store, m mailer.Sender, alloc *ordernum.Allocator, baseURL, from string) *Service {
	return &Service{Store: st, Mailer: m, Alloc: alloc, BaseURL: baseURL, From: from, Now: time.Now}
}

func newQuoteToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("lifecycle: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// SubmitQuote is the public intake path: reuse the customer by email
// or create one, then open a quote in status new.
func (s *Service) SubmitQuote(ctx context.Context, customer models.Customer, quote models.Quote) (*models.Quote, error) {
	existing, err := s.Store.GetCustomerByEmail(ctx, customer.Email)
	if err != nil {
		return nil, fmt.Errorf("look up customer: %w", err)
	}
	if existing != nil {
		customer.ID = existing.ID
	} else {
		if err := s.Store.CreateCustomer(ctx, &customer); err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
	}

	quote.CustomerID = customer.ID
	quote.Status = models.QuoteNew
	if err := s.Store.CreateQuote(ctx, &quote); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return s.Store.GetQuoteByID(ctx, quote.ID)
}

// SendQuote prices a quote and moves it to quoted: the price is
// validated before any side effect, the single-use customer token is
// minted, responseSentAt is stamped, then the customer is emailed a
// viewing link. Returns whether the notification actually went out.
func (s *Service) SendQuote(ctx context.Context, quoteID int, price float64, adminNotes string) (*models.Quote, bool, error) {
	if price <= 0 {
		return nil, false, ErrInvalidPrice
	}

	q, err := s.Store.GetQuoteByID(ctx, quoteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("load quote: %w", err)
	}
	if q.Status.Terminal() {
		return nil, false, ErrNotQuoted
	}

	// Re-sending a quoted quote keeps its token so the original link
	// stays valid.
	token := q.CustomerToken
	if token == "" {
		token = newQuoteToken()
	}
	now := s.Now()
	if err := s.Store.MarkQuoteQuoted(ctx, q.ID, price, adminNotes, token, now.Add(QuoteTokenTTL), now); err != nil {
		return nil, false, fmt.Errorf("mark quoted: %w", err)
	}

	q, err = s.Store.GetQuoteByID(ctx, q.ID)
	if err != nil {
		return nil, false, fmt.Errorf("reload quote: %w", err)
	}

	notified := s.notify(ctx, q.CustomerEmail, "Your quote from Vurmz Laser Engraving",
		"Hi "+q.CustomerName+",\n\n"+
			"Your quote for \""+q.ProductType+"\" is ready: $"+fmt.Sprintf("%.2f", price)+"\n\n"+
			"View and respond here: "+s.BaseURL+"/quote/"+token+"\n")
	return q, notified, nil
}

// AcceptQuote flips a quoted quote to accepted. The presented token
// must match a quote whose status is exactly quoted; "already
// accepted" is reported distinctly from every other ineligible state.
func (s *Service) AcceptQuote(ctx context.Context, token string) (*models.Quote, error) {
	q, err := s.decisionQuote(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.Store.MarkQuoteAccepted(ctx, q.ID, s.Now()); err != nil {
		return nil, fmt.Errorf("mark accepted: %w", err)
	}
	return s.Store.GetQuoteByID(ctx, q.ID)
}

// DeclineQuote is terminal; no further side effect.
func (s *Service) DeclineQuote(ctx context.Context, token string) (*models.Quote, error) {
	q, err := s.decisionQuote(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.Store.MarkQuoteDeclined(ctx, q.ID); err != nil {
		return nil, fmt.Errorf("mark declined: %w", err)
	}
	return s.Store.GetQuoteByID(ctx, q.ID)
}

func (s *Service) decisionQuote(ctx context.Context, token string) (*models.Quote, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	q, err := s.Store.GetQuoteByToken(ctx, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load quote: %w", err)
	}
	// Expiry is checked even though the token matched.
	if !q.TokenExpiry.IsZero() && s.Now().After(q.TokenExpiry) {
		return nil, ErrTokenExpired
	}
	switch q.Status {
	case models.QuoteQuoted:
		return q, nil
	case models.QuoteAccepted:
		return nil, ErrAlreadyAccepted
	default:
		return nil, ErrNotQuoted
	}
}

type PromoteInput struct {
	Material        string
	Quantity        int
	Price           float64 // 0 means keep the quoted price
	DeliveryMethod  string
	ProductionNotes string
	DueDate         *time.Time
}

// PromoteQuote converts a quote into a numbered order. One order per
// quote is enforced by the UNIQUE constraint on orders.quote_id; the
// allocated order number is mirrored back onto the quote and the quote
// flips to accepted as a linked side effect.
func (s *Service) PromoteQuote(ctx context.Context, quoteID int, in PromoteInput) (*models.Order, error) {
	q, err := s.Store.GetQuoteByID(ctx, quoteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load quote: %w", err)
	}
	if q.Status == models.QuoteDeclined {
		return nil, ErrNotQuoted
	}

	existing, err := s.Store.GetOrderByQuoteID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("check existing order: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyPromoted
	}

	qty := in.Quantity
	if qty <= 0 {
		// Quote quantity is free text; salvage a number when there is one.
		if n, err := strconv.Atoi(strings.TrimSpace(q.Quantity)); err == nil && n > 0 {
			qty = n
		} else {
			qty = 1
		}
	}
	price := in.Price
	if price <= 0 {
		price = q.Price
	}

	order := &models.Order{
		CustomerID:         q.CustomerID,
		QuoteID:            &q.ID,
		ProjectDescription: q.Description,
		Material:           in.Material,
		Quantity:           qty,
		Price:              price,
		Status:             models.OrderPending,
		PaymentStatus:      models.PaymentUnpaid,
		DeliveryMethod:     firstNonEmpty(in.DeliveryMethod, q.DeliveryMethod),
		ProductionNotes:    in.ProductionNotes,
		DueDate:            in.DueDate,
	}
	if err := s.createWithNumber(ctx, order); err != nil {
		return nil, err
	}
	return s.Store.GetOrderByID(ctx, order.ID)
}

type CreateOrderInput struct {
	CustomerID         int
	ProjectDescription string
	Material           string
	Quantity           int
	Price              float64
	DeliveryMethod     string
	ProductionNotes    string
	DueDate            *time.Time
}

// CreateOrder is the direct admin path with no originating quote.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	order := &models.Order{
		CustomerID:         in.CustomerID,
		ProjectDescription: in.ProjectDescription,
		Material:           in.Material,
		Quantity:           in.Quantity,
		Price:              in.Price,
		Status:             models.OrderPending,
		PaymentStatus:      models.PaymentUnpaid,
		DeliveryMethod:     in.DeliveryMethod,
		ProductionNotes:    in.ProductionNotes,
		DueDate:            in.DueDate,
	}
	if err := s.createWithNumber(ctx, order); err != nil {
		return nil, err
	}
	return s.Store.GetOrderByID(ctx, order.ID)
}

func (s *Service) createWithNumber(ctx context.Context, order *models.Order) error {
	for attempt := 0; attempt < allocRetries; attempt++ {
		num, err := s.Alloc.Next(ctx)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}
		order.OrderNumber = num

		err = s.Store.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if store.IsUniqueViolation(err, "orders.quote_id") {
			return ErrAlreadyPromoted
		}
		if store.IsUniqueViolation(err, "orders.order_number") {
			slog.Warn("Order number collision, retrying", "order_number", num, "attempt", attempt+1)
			continue
		}
		return fmt.Errorf("create order: %w", err)
	}
	return fmt.Errorf("allocate order number: exhausted %d attempts", allocRetries)
}

type StatusChange struct {
	Order    *models.Order
	Notified bool
}

// ChangeOrderStatus moves an order between pending, in_progress and
// completed, appending the activity record and stamping completedAt
// exactly when the new status is completed. When notify is set a
// status-specific email goes to the customer after the write;
// delivery failure never rolls the change back.
func (s *Service) ChangeOrderStatus(ctx context.Context, orderID int, to models.OrderStatus, notify bool) (*StatusChange, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if o.Status != to {
		if err := s.Store.ChangeOrderStatus(ctx, o.ID, o.Status, to, s.Now()); err != nil {
			return nil, fmt.Errorf("change status: %w", err)
		}
	}

	updated, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	result := &StatusChange{Order: updated}
	if notify && updated.CustomerEmail != "" {
		result.Notified = s.notify(ctx, updated.CustomerEmail,
			statusSubject(to, updated.OrderNumber),
			statusBody(updated))
	}
	return result, nil
}

// MarkPaid flips the payment axis independently of lifecycle status
// and opens a receipt record for the order if none exists yet.
func (s *Service) MarkPaid(ctx context.Context, orderID int) (*models.Order, error) {
	o, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if err := s.Store.MarkOrderPaid(ctx, o.ID, s.Now()); err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}

	receipt, err := s.Store.LatestReceiptByOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	if receipt == nil {
		if err := s.Store.CreateReceipt(ctx, &models.Receipt{
			ID:            uuid.New().String(),
			OrderID:       o.ID,
			ReceiptNumber: ordernum.ReceiptNumber(s.Now()),
			Amount:        o.Price,
		}); err != nil {
			return nil, fmt.Errorf("create receipt: %w", err)
		}
	}

	return s.Store.GetOrderByID(ctx, orderID)
}

// ResendReceipt re-sends the most recent receipt for the order. Unlike
// status notifications the email here is the whole point of the
// operation, so a delivery failure is returned and receiptSentAt is
// only stamped on success.
func (s *Service) ResendReceipt(ctx context.Context, orderID int) (*models.Order, error) {
	o, err := s.Store.GetOrderByID(ctx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o.CustomerEmail == "" {
		return nil, ErrNoCustomerEmail
	}

	receipt, err := s.Store.LatestReceiptByOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	if receipt == nil {
		receipt = &models.Receipt{
			ID:            uuid.New().String(),
			OrderID:       o.ID,
			ReceiptNumber: ordernum.ReceiptNumber(s.Now()),
			Amount:        o.Price,
		}
		if err := s.Store.CreateReceipt(ctx, receipt); err != nil {
			return nil, fmt.Errorf("create receipt: %w", err)
		}
	}

	msg := mailer.Message{
		From:    s.From,
		To:      o.CustomerEmail,
		Subject: "Receipt " + receipt.ReceiptNumber + " — Vurmz Laser Engraving",
		Text: "Hi " + o.CustomerName + ",\n\n" +
			"Receipt " + receipt.ReceiptNumber + " for order " + o.OrderNumber + "\n" +
			"Amount: $" + fmt.Sprintf("%.2f", receipt.Amount) + "\n\n" +
			"Thank you for your business!\n",
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send receipt: %w", err)
	}

	now := s.Now()
	if err := s.Store.MarkReceiptSent(ctx, receipt.ID, now); err != nil {
		return nil, fmt.Errorf("stamp receipt: %w", err)
	}
	if err := s.Store.SetOrderReceiptSentAt(ctx, o.ID, now); err != nil {
		return nil, fmt.Errorf("stamp order: %w", err)
	}
	return s.Store.GetOrderByID(ctx, orderID)
}

// notify sends best-effort; failures are logged, never propagated.
func (s *Service) notify(ctx context.Context, to, subject, body string) bool {
	err := s.Mailer.Send(ctx, mailer.Message{From: s.From, To: to, Subject: subject, Text: body})
	if err != nil {
		slog.Error("Notification send failed", "to", to, "subject", subject, "error", err)
		return false
	}
	return true
}

func statusSubject(st models.OrderStatus, orderNumber string) string {
	switch st {
	case models.OrderInProgress:
		return "Order " + orderNumber + " is in production"
	case models.OrderCompleted:
		return "Order " + orderNumber + " is ready"
	default:
		return "Order " + orderNumber + " update"
	}
}

func statusBody(o *models.Order) string {
	var b strings.Builder
	b.WriteString("Hi " + o.CustomerName + ",\n\n")
	switch o.Status {
	case models.OrderInProgress:
		b.WriteString("Your order " + o.OrderNumber + " has entered production.\n")
	case models.OrderCompleted:
		b.WriteString("Your order " + o.OrderNumber + " is complete")
		if o.DeliveryMethod != "" {
			b.WriteString(" and ready for " + o.DeliveryMethod)
		}
		b.WriteString(".\n")
	default:
		b.WriteString("Your order " + o.OrderNumber + " status is now " + string(o.Status) + ".\n")
	}
	b.WriteString("\nQuestions? Just reply to this email.\n")
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
