package models

import (
	"time"
)

type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Province  string    `json:"province"`
	Postal    string    `json:"postal"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type Quote struct {
	ID             int         `json:"id"`
	CustomerID     int         `json:"customer_id"`
	CustomerName   string      `json:"customer_name"`  // For display convenience
	CustomerEmail  string      `json:"customer_email"` // For display convenience
	ProductType    string      `json:"product_type"`
	Quantity       string      `json:"quantity"` // Free text ("15", "a dozen or so")
	Description    string      `json:"description"`
	Turnaround     string      `json:"turnaround"`
	DeliveryMethod string      `json:"delivery_method"`
	Status         QuoteStatus `json:"status"`
	Price          float64     `json:"price"`
	AdminNotes     string      `json:"admin_notes"`
	OrderNumber    string      `json:"order_number"` // Display id, assigned at promotion
	CustomerToken  string      `json:"-"`
	TokenExpiry    time.Time   `json:"-"`
	ResponseSentAt *time.Time  `json:"response_sent_at"`
	AcceptedAt     *time.Time  `json:"accepted_at"`
	CompletedAt    *time.Time  `json:"completed_at"`
	CreatedAt      time.Time   `json:"created_at"`
}

type Order struct {
	ID                 int           `json:"id"`
	OrderNumber        string        `json:"order_number"`
	CustomerID         int           `json:"customer_id"`
	QuoteID            *int          `json:"quote_id"` // Originating quote, if any
	CustomerName       string        `json:"customer_name"`
	CustomerEmail      string        `json:"customer_email"`
	ProjectDescription string        `json:"project_description"`
	Material           string        `json:"material"`
	Quantity           int           `json:"quantity"`
	Price              float64       `json:"price"`
	Status             OrderStatus   `json:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	DeliveryMethod     string        `json:"delivery_method"`
	DeliveryNotes      string        `json:"delivery_notes"`
	ProductionNotes    string        `json:"production_notes"`
	DueDate            *time.Time    `json:"due_date"`
	CompletedAt        *time.Time    `json:"completed_at"`
	ReceiptSentAt      *time.Time    `json:"receipt_sent_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// OrderActivity is an append-only record of a status transition.
type OrderActivity struct {
	ID        int       `json:"id"`
	OrderID   int       `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type Receipt struct {
	ID            string     `json:"id"` // uuid
	OrderID       int        `json:"order_id"`
	ReceiptNumber string     `json:"receipt_number"`
	Amount        float64    `json:"amount"`
	SentAt        *time.Time `json:"sent_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Material is a catalog entry shown on the public site and picked
// when promoting a quote.
type Material struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   float64   `json:"base_price"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"` // "available", "archived"
	CreatedAt   time.Time `json:"created_at"`
}

type AdminUser struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, optional bootstrap login
	CreatedAt time.Time `json:"created_at"`
}

// MagicToken is a single-use login token scoped to one principal.
// At most one token exists per principal; reissuing overwrites the
// previous one, which intentionally invalidates the older link.
type MagicToken struct {
	PrincipalType PrincipalType `json:"principal_type"`
	PrincipalID   int           `json:"principal_id"`
	Token         string        `json:"-"`
	ExpiresAt     time.Time     `json:"expires_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Session struct {
	ID            string        `json:"id"` // uuid
	PrincipalType PrincipalType `json:"principal_type"`
	PrincipalID   int           `json:"principal_id"`
	ExpiresAt     time.Time     `json:"expires_at"`
	CreatedAt     time.Time     `json:"created_at"`
}
