// Package hostedpage renders the Airwallex drop-in payment page served to
// the payer while the capture flow is suspended awaiting a nonce.
package hostedpage

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
)

//go:embed checkout.html.tmpl
var checkoutTmpl string

// Params is the full parameter set the page template needs. DisplayAmount is
// the formatted string shown to the payer; NumericAmount feeds the payment
// SDK. VerificationDetails is a pre-encoded JSON blob emitted verbatim into
// the page script, so it must never carry payer-controlled input.
type Params struct {
	MerchantReference   string
	DisplayAmount       string
	NumericAmount       float64
	VerificationDetails template.JS
	CurrencyCode        string
	CountryCode         string
	IntentID            string
	ClientSecret        string
	ActionURL           string
	ImgURL              string
	Sandbox             bool
}

// Renderer produces the hosted payment page HTML.
type Renderer struct {
	tpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tpl, err := template.New("checkout").Parse(checkoutTmpl)
	if err != nil {
		return nil, fmt.Errorf("hostedpage: parse template: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render executes the checkout template and returns the page as a string.
func (r *Renderer) Render(p Params) (string, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("hostedpage: render: %w", err)
	}
	return buf.String(), nil
}

// FormatAmount renders amount with the given number of decimal digits and
// thousands separators, e.g. FormatAmount(1234.5, 2) == "1,234.50".
func FormatAmount(amount float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	neg := amount < 0
	s := strconv.FormatFloat(math.Abs(amount), 'f', digits, 64)
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
