// internal/model/order.go
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order in the upstream
// order system.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// TakeawayTable is the sentinel table name the upstream system assigns to
// pickup orders.
const TakeawayTable = "takeaway"

// PaymentStatus represents the settlement state of an order's payment
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// SelectedOption represents a chosen variant or modifier on an order item
type SelectedOption struct {
	GroupName  string `json:"groupName"`
	OptionName string `json:"optionName"`
}

// OrderItem represents a single line of an order
type OrderItem struct {
	Name              string           `json:"name"`
	Quantity          int              `json:"quantity"`
	Price             decimal.Decimal  `json:"price"`
	SelectedVariants  []SelectedOption `json:"selectedVariants,omitempty"`
	SelectedModifiers []SelectedOption `json:"selectedModifiers,omitempty"`
}

// LineTotal returns price multiplied by quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents an order as delivered by the upstream order system
type Order struct {
	ID            string        `json:"_id"`
	Table         string        `json:"table"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentMethod string        `json:"paymentMethod"`
	PickupTime    string        `json:"pickupTime,omitempty"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	Items         []OrderItem   `json:"items"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ShortID returns the upper-cased tail of the order id, the form printed on
// receipts and shown to staff.
func (o *Order) ShortID() string {
	id := o.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	upper := []rune(id)
	for i, r := range upper {
		if r >= 'a' && r <= 'z' {
			upper[i] = r - 32
		}
	}
	return string(upper)
}

// IsTakeaway reports whether the order is a pickup order. The upstream
// system is not consistent about the casing of the sentinel, so the
// comparison ignores case.
func (o *Order) IsTakeaway() bool {
	return strings.EqualFold(o.Table, TakeawayTable)
}

// IsPaid reports whether the payment has settled
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// IsCounterPayment reports whether the order is settled at the counter
// rather than online.
func (o *Order) IsCounterPayment() bool {
	switch o.PaymentMethod {
	case "counter-cash", "counter-card", "cash":
		return true
	}
	return false
}

// IsActive reports whether the order still needs kitchen attention
func (o *Order) IsActive() bool {
	switch o.Status {
	case OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady:
		return true
	case OrderStatusPending:
		return o.IsCounterPayment()
	}
	return false
}

// NotificationWorthy reports whether the order should trigger the staff
// alert and automatic receipt printing. Online-paid orders always qualify;
// counter-payment orders qualify only while pending and only for dine-in,
// since takeaway counter orders are settled face to face.
func (o *Order) NotificationWorthy() bool {
	if o.IsPaid() && !o.IsCounterPayment() {
		return true
	}
	if o.IsCounterPayment() && o.PaymentStatus == PaymentStatusPending && !o.IsTakeaway() {
		return true
	}
	return false
}

// Total returns the sum of all line totals
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	return total
}
