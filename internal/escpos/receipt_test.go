// internal/escpos/receipt_test.go
package escpos

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"printer-service/internal/model"
)

func sampleOrder() *model.Order {
	return &model.Order{
		ID:            "66f2a1b9c3d4e5f678a1b2c3",
		Table:         "5",
		Status:        model.OrderStatusConfirmed,
		PaymentStatus: model.PaymentStatusPaid,
		PaymentMethod: "card",
		Items: []model.OrderItem{
			{
				Name:     "Margherita",
				Quantity: 2,
				Price:    decimal.NewFromFloat(9.50),
				SelectedVariants: []model.SelectedOption{
					{GroupName: "Size", OptionName: "Large"},
				},
			},
			{Name: "Cola", Quantity: 1, Price: decimal.NewFromFloat(2.50)},
		},
		CreatedAt: time.Date(2026, 3, 4, 18, 30, 15, 0, time.UTC),
	}
}

func TestFormatOrderFrame(t *testing.T) {
	data := FormatOrder(sampleOrder(), FormatOptions{Brand: "goeasy.menu"})

	if !bytes.HasPrefix(data, ESC_POS_COMMANDS.INITIALIZE) {
		t.Error("receipt must start with the initialize command")
	}
	if !bytes.HasSuffix(data, ESC_POS_COMMANDS.CUT_PARTIAL_FEED) {
		t.Error("receipt must end with the cut command")
	}

	feed := append(append([]byte{}, ESC_POS_COMMANDS.FEED_LINES...), 3)
	if !bytes.Contains(data, feed) {
		t.Error("receipt must feed paper before cutting")
	}
}

func TestFormatOrderHeader(t *testing.T) {
	data := FormatOrder(sampleOrder(), FormatOptions{Brand: "goeasy.menu"})

	if !bytes.Contains(data, []byte("\n#A1B2C3\n")) {
		t.Errorf("header should carry the short order id, got:\n%q", data)
	}
	if !bytes.Contains(data, []byte("*** 5 ***")) {
		t.Error("header should carry the table marker")
	}
	if !bytes.Contains(data, []byte("3/4/2026, 6:30:15 PM")) {
		t.Error("dine-in receipt should carry the creation timestamp")
	}
	if bytes.Contains(data, []byte("Online Order")) {
		t.Error("dine-in receipt must not use the takeaway header")
	}
}

func TestFormatOrderTakeaway(t *testing.T) {
	order := sampleOrder()
	order.Table = model.TakeawayTable
	order.PickupTime = "19:15"
	order.CustomerName = "Ana"
	order.CustomerPhone = "0123456789"
	order.CustomerEmail = "ana@example.com"

	data := FormatOrder(order, FormatOptions{Brand: "goeasy.menu"})

	for _, want := range []string{
		"   Online Order (3/4/2026, 6:30:15 PM)\n",
		"   Payment: paid\n",
		"   Pickup: 19:15\n",
		"   for Ana | 0123456789\n",
		"   ana@example.com\n",
		"*** takeaway ***",
	} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("takeaway receipt missing %q", want)
		}
	}
}

func TestFormatOrderItems(t *testing.T) {
	data := FormatOrder(sampleOrder(), FormatOptions{Brand: "goeasy.menu"})

	if !bytes.Contains(data, []byte("   2 x Margherita\n")) {
		t.Error("item line missing")
	}
	if !bytes.Contains(data, []byte("       Size: Large\n")) {
		t.Error("variant line missing")
	}
	// The cola has no variants or modifiers and must add no option lines
	if bytes.Count(data, []byte("       ")) != 1 {
		t.Errorf("expected exactly one indented option line, got %d",
			bytes.Count(data, []byte("       ")))
	}
}

func TestFormatOrderFooter(t *testing.T) {
	data := FormatOrder(sampleOrder(), FormatOptions{Brand: "goeasy.menu"})

	if !bytes.Contains(data, []byte("\npowered by goeasy.menu\n")) {
		t.Error("footer brand line missing")
	}
	if bytes.Count(data, []byte(separator)) != 2 {
		t.Errorf("expected two separators, got %d", bytes.Count(data, []byte(separator)))
	}
}

func TestFormatOrderDeterministic(t *testing.T) {
	order := sampleOrder()
	opts := FormatOptions{Brand: "goeasy.menu"}

	first := FormatOrder(order, opts)
	second := FormatOrder(order, opts)
	if !bytes.Equal(first, second) {
		t.Error("formatting the same order twice must yield identical bytes")
	}
}

func TestFormatOrderUnicodePassthrough(t *testing.T) {
	order := sampleOrder()
	order.Items[0].Name = "Phở Đặc Biệt"

	data := FormatOrder(order, FormatOptions{Brand: "goeasy.menu"})
	if !bytes.Contains(data, []byte("Phở Đặc Biệt")) {
		t.Error("item names must pass through as UTF-8 when folding is off")
	}

	folded := FormatOrder(order, FormatOptions{Brand: "goeasy.menu", FoldDiacritics: true})
	if !bytes.Contains(folded, []byte("Pho Dac Biet")) {
		t.Error("folding should strip diacritics from item names")
	}
}

func TestFoldDiacritics(t *testing.T) {
	cases := map[string]string{
		"Phở":      "Pho",
		"đặc biệt": "dac biet",
		"Crème":    "Creme",
		"plain":    "plain",
		"Đà Nẵng":  "Da Nang",
		"jalapeño": "jalapeno",
		"Smörgås":  "Smorgas",
	}
	for in, want := range cases {
		if got := foldDiacritics(in); got != want {
			t.Errorf("foldDiacritics(%q) = %q, want %q", in, got, want)
		}
	}
}
