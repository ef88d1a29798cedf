// Package paymenturi builds the scheme-prefixed payment URIs encoded into QR codes.
//
// Address and amount are concatenated verbatim. Wallets in the field scan the
// URIs produced this way, so no percent-encoding is applied.
package paymenturi

import (
	"fmt"
	"strings"

	"github.com/ngenohkevin/cryptopay/internals/currency"
)

// Request is the user input a payment URI is built from
type Request struct {
	Currency currency.Spec `json:"currency"`
	Address  string        `json:"address"`
	Amount   string        `json:"amount"`
}

// Build returns prefix+address, followed by ?amount=<amount> when an amount is given
func Build(spec currency.Spec, address, amount string) string {
	uri := spec.Prefix + address
	if amount != "" {
		uri += "?amount=" + amount
	}
	return uri
}

// SanitizeAmount drops every character that is not a decimal digit or a dot.
// Multiple dots are kept as typed.
func SanitizeAmount(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FileName is the name a downloaded QR image is saved under
func FileName(spec currency.Spec) string {
	return strings.ToLower(spec.Symbol) + "-payment-qr.png"
}

// Summary is the label shown under the code, e.g. "0.5 ETH" or "Any amount"
func Summary(spec currency.Spec, amount string) string {
	if amount == "" {
		return "Any amount"
	}
	return fmt.Sprintf("%s %s", amount, spec.Symbol)
}

// URI builds the payment URI for the request
func (r Request) URI() string {
	return Build(r.Currency, r.Address, r.Amount)
}

// Ready reports whether the request carries an address and may be encoded
func (r Request) Ready() bool {
	return r.Address != ""
}

// FileName is the download name for the request's QR image
func (r Request) FileName() string {
	return FileName(r.Currency)
}

// Summary is the amount label for the request
func (r Request) Summary() string {
	return Summary(r.Currency, r.Amount)
}
