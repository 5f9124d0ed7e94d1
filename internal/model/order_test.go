// internal/model/order_test.go
package model

import (
	"encoding/json"
	"testing"
)

func TestOrderDecodesUpstreamShape(t *testing.T) {
	raw := `{
		"_id": "66f2a1b9c3d4e5f678a1b2c3",
		"table": "takeaway",
		"status": "confirmed",
		"paymentStatus": "paid",
		"paymentMethod": "card",
		"items": [{"name": "Soup", "quantity": 1, "price": "4.50"}]
	}`

	var order Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if order.PaymentStatus != PaymentStatusPaid {
		t.Fatalf("got payment status %q, want %q", order.PaymentStatus, PaymentStatusPaid)
	}
	if !order.IsPaid() {
		t.Error("order with paymentStatus \"paid\" should report paid")
	}
	if !order.NotificationWorthy() {
		t.Error("paid online order should be notification-worthy")
	}
}

func TestNotificationWorthy(t *testing.T) {
	cases := []struct {
		name   string
		order  Order
		worthy bool
	}{
		{"paid online dine-in", Order{Table: "5", PaymentStatus: PaymentStatusPaid, PaymentMethod: "card"}, true},
		{"paid online takeaway", Order{Table: "takeaway", PaymentStatus: PaymentStatusPaid, PaymentMethod: "card"}, true},
		{"pending online", Order{Table: "5", PaymentStatus: PaymentStatusPending, PaymentMethod: "card"}, false},
		{"pending counter dine-in", Order{Table: "5", PaymentStatus: PaymentStatusPending, PaymentMethod: "counter-cash"}, true},
		{"pending counter takeaway", Order{Table: "takeaway", PaymentStatus: PaymentStatusPending, PaymentMethod: "counter-cash"}, false},
		{"paid counter", Order{Table: "5", PaymentStatus: PaymentStatusPaid, PaymentMethod: "counter-card"}, false},
	}
	for _, tc := range cases {
		if got := tc.order.NotificationWorthy(); got != tc.worthy {
			t.Errorf("%s: NotificationWorthy() = %v, want %v", tc.name, got, tc.worthy)
		}
	}
}

func TestIsTakeawayIgnoresCase(t *testing.T) {
	for _, table := range []string{"takeaway", "Takeaway", "TAKEAWAY"} {
		order := Order{Table: table}
		if !order.IsTakeaway() {
			t.Errorf("table %q should count as takeaway", table)
		}
	}
	if (&Order{Table: "5"}).IsTakeaway() {
		t.Error("a numbered table is not takeaway")
	}
}

func TestAppliesToRoutesByOrderKind(t *testing.T) {
	takeaway := &Printer{ForTakeaway: true}
	dineIn := &Printer{ForDineIn: true}

	order := &Order{Table: "Takeaway"}
	if !takeaway.AppliesTo(order) {
		t.Error("mixed-case takeaway order should reach the takeaway printer")
	}
	if dineIn.AppliesTo(order) {
		t.Error("mixed-case takeaway order must not reach the dine-in printer")
	}
}
