package models

import "strings"

// Status vocab in the old data was loose ("complete" vs "completed",
// "approved" vs "accepted", mixed case for orders). Each entity gets
// one canonical enum here and legacy strings are normalized at the
// storage boundary.

type QuoteStatus string

const (
	QuoteNew             QuoteStatus = "new"
	QuotePendingApproval QuoteStatus = "pending_approval"
	QuoteQuoted          QuoteStatus = "quoted"
	QuoteAccepted        QuoteStatus = "accepted"
	QuoteDeclined        QuoteStatus = "declined"
	QuoteInProgress      QuoteStatus = "in_progress"
	QuoteCompleted       QuoteStatus = "completed"
)

// QuoteStatuses lists the canonical values in lifecycle order, for
// building select inputs.
var QuoteStatuses = []QuoteStatus{
	QuoteNew, QuotePendingApproval, QuoteQuoted, QuoteAccepted,
	QuoteDeclined, QuoteInProgress, QuoteCompleted,
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteNew, QuotePendingApproval, QuoteQuoted, QuoteAccepted,
		QuoteDeclined, QuoteInProgress, QuoteCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is expected.
func (s QuoteStatus) Terminal() bool {
	return s == QuoteDeclined || s == QuoteCompleted
}

func NormalizeQuoteStatus(raw string) QuoteStatus {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	switch v {
	case "complete":
		return QuoteCompleted
	case "approved":
		return QuoteAccepted
	case "":
		return QuoteNew
	}
	return QuoteStatus(v)
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
)

// OrderStatuses lists the canonical values in lifecycle order, for
// building select inputs.
var OrderStatuses = []OrderStatus{OrderPending, OrderInProgress, OrderCompleted}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted:
		return true
	}
	return false
}

func NormalizeOrderStatus(raw string) OrderStatus {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	switch v {
	case "complete":
		return OrderCompleted
	case "":
		return OrderPending
	}
	return OrderStatus(v)
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

func NormalizePaymentStatus(raw string) PaymentStatus {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "paid" {
		return PaymentPaid
	}
	return PaymentUnpaid
}

// PrincipalType distinguishes the two login audiences. The scopes are
// disjoint: an admin session never authenticates a customer surface
// and vice versa.
type PrincipalType string

const (
	PrincipalAdmin    PrincipalType = "admin"
	PrincipalCustomer PrincipalType = "customer"
)

func (p PrincipalType) Valid() bool {
	return p == PrincipalAdmin || p == PrincipalCustomer
}
