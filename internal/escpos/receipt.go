// internal/escpos/receipt.go
package escpos

import (
	"bytes"
	"fmt"
	"strings"

	"printer-service/internal/model"
)

// separator matches the 42 column width of an 80mm receipt
var separator = strings.Repeat("-", 42)

// timestampLayout renders timestamps the way the ordering site shows them
const timestampLayout = "1/2/2006, 3:04:05 PM"

// FormatOptions controls receipt rendering
type FormatOptions struct {
	// Brand is printed in the receipt footer
	Brand string
	// FoldDiacritics strips combining marks for printers whose code page
	// cannot render them
	FoldDiacritics bool
}

// FormatOrder renders an order as a complete ESC/POS byte stream, ending
// with a paper feed and partial cut. It performs no I/O and is safe for
// concurrent use.
func FormatOrder(order *model.Order, opts FormatOptions) []byte {
	var buf bytes.Buffer

	text := func(s string) {
		if opts.FoldDiacritics {
			s = foldDiacritics(s)
		}
		buf.WriteString(s)
	}

	buf.Write(ESC_POS_COMMANDS.INITIALIZE)

	// Header: big order id and table marker
	buf.Write(ESC_POS_COMMANDS.ALIGN_CENTER)
	buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_DOUBLE_BOTH)
	text("\n#" + order.ShortID() + "\n")
	buf.Write(ESC_POS_COMMANDS.TEXT_BOLD_ON)
	text("*** " + order.Table + " ***\n\n")
	buf.Write(ESC_POS_COMMANDS.TEXT_BOLD_OFF)
	buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_NORMAL)

	createdAt := order.CreatedAt.Format(timestampLayout)

	if order.IsTakeaway() {
		buf.Write(ESC_POS_COMMANDS.ALIGN_LEFT)
		text("   Online Order (" + createdAt + ")\n")
		if order.PaymentStatus != "" {
			text("   Payment: " + string(order.PaymentStatus) + "\n")
		}
		if order.PickupTime != "" {
			text("   Pickup: " + order.PickupTime + "\n")
		}
		if order.CustomerName != "" || order.CustomerPhone != "" {
			text("   for " + order.CustomerName + " | " + order.CustomerPhone + "\n")
		}
		if order.CustomerEmail != "" {
			text("   " + order.CustomerEmail + "\n")
		}
		buf.Write(ESC_POS_COMMANDS.ALIGN_CENTER)
		text("\n" + separator + "\n\n")
	} else {
		text(createdAt + "\n")
		text("\n" + separator + "\n\n")
	}

	// Items: large quantity line, smaller indented variant and modifier
	// lines, blank line between items
	for i := range order.Items {
		item := &order.Items[i]

		buf.Write(ESC_POS_COMMANDS.ALIGN_LEFT)
		buf.Write(ESC_POS_COMMANDS.TEXT_BOLD_ON)
		buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_DOUBLE_HEIGHT)
		text(fmt.Sprintf("   %d x %s\n", item.Quantity, item.Name))
		buf.Write(ESC_POS_COMMANDS.TEXT_BOLD_OFF)
		buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_NORMAL)

		for _, v := range item.SelectedVariants {
			buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_DOUBLE_HEIGHT)
			text("       " + v.GroupName + ": " + v.OptionName + "\n")
			buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_NORMAL)
		}
		for _, m := range item.SelectedModifiers {
			buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_DOUBLE_HEIGHT)
			text("       " + m.GroupName + ": " + m.OptionName + "\n")
			buf.Write(ESC_POS_COMMANDS.TEXT_SIZE_NORMAL)
		}

		text("\n")
	}

	// Footer
	buf.Write(ESC_POS_COMMANDS.ALIGN_CENTER)
	text(separator + "\n")
	buf.Write(ESC_POS_COMMANDS.TEXT_BOLD_ON)
	text("\npowered by " + opts.Brand + "\n")
	buf.Write(ESC_POS_COMMANDS.TEXT_BOLD_OFF)

	buf.Write(ESC_POS_COMMANDS.FEED_LINES)
	buf.WriteByte(3)
	buf.Write(ESC_POS_COMMANDS.CUT_PARTIAL_FEED)

	return buf.Bytes()
}
