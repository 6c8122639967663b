package payouts

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mentordesk/mentordesk/internal/shared"
)

const receiptDate = "2006-01-02"

// FormatAmount renders amount in the currency's standard precision, e.g.
// "USD 420.00" or "JPY 5000".
func FormatAmount(amount float64, code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", shared.NewValidationError("currency", "unknown currency "+code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	p := message.NewPrinter(language.English)
	return unit.String() + " " + p.Sprintf(fmt.Sprintf("%%.%df", scale), amount), nil
}

type receiptLine struct {
	key, value string
}

func writeReceipt(lines []receiptLine) []byte {
	var buf bytes.Buffer
	buf.WriteString("MentorDesk receipt\n")
	for _, l := range lines {
		fmt.Fprintf(&buf, "%s: %s\n", l.key, l.value)
	}
	return buf.Bytes()
}

// InvoiceReceipt renders a plain-text key: value receipt.
func InvoiceReceipt(inv Invoice) ([]byte, error) {
	amount, err := FormatAmount(inv.Amount, inv.Currency)
	if err != nil {
		return nil, err
	}
	return writeReceipt([]receiptLine{
		{"type", "invoice"},
		{"id", inv.ID},
		{"mentee", inv.Mentee},
		{"description", inv.Description},
		{"amount", amount},
		{"status", string(inv.Status)},
		{"date", inv.Date.UTC().Format(receiptDate)},
	}), nil
}

// PayoutReceipt renders a plain-text key: value receipt.
func PayoutReceipt(p Payout) ([]byte, error) {
	amount, err := FormatAmount(p.Amount, p.Currency)
	if err != nil {
		return nil, err
	}
	return writeReceipt([]receiptLine{
		{"type", "payout"},
		{"id", p.ID},
		{"method", p.Method},
		{"reference", p.Reference},
		{"amount", amount},
		{"status", string(p.Status)},
		{"date", p.Date.UTC().Format(receiptDate)},
	}), nil
}
