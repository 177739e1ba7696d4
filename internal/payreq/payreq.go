package payreq

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"waylbridge/internal/lineitems"
	"waylbridge/internal/models"
)

// Source is the reference-id prefix correlating WAYL transactions back to
// Shopify orders.
const Source = "SHOPIFY"

// ErrBadReference covers both a missing reference id and one that does not
// match the SHOPIFY-<digits>-... pattern.
var ErrBadReference = errors.New("invalid reference id")

var refPattern = regexp.MustCompile(`^` + Source + `-(\d+)-`)

// ParseReference extracts the originating order id from a callback
// reference id.
func ParseReference(ref string) (string, error) {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return m[1], nil
}

// Assembler builds outbound payment-link requests. Reference ids carry a
// wall-clock suffix, so a re-delivered webhook would mint a fresh reference;
// the order flow guards against that by checking the order's stored link
// before calling this.
type Assembler struct {
	CallbackURL string
	StoreDomain string
	Now         func() time.Time
}

func (a Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewReference returns "SHOPIFY-{orderID}-{epochMillis}".
func (a Assembler) NewReference(orderID int64) string {
	return fmt.Sprintf("%s-%d-%d", Source, orderID, a.now().UnixMilli())
}

// Assemble is pure construction; the gateway call happens elsewhere.
func (a Assembler) Assemble(order models.Order, currency string, items []models.PayableLineItem) models.PaymentRequest {
	ts := a.now().UnixMilli()

	redirect := order.OrderStatusURL
	if redirect == "" {
		redirect = fmt.Sprintf("https://%s/account", a.StoreDomain)
	}

	return models.PaymentRequest{
		ReferenceID:    fmt.Sprintf("%s-%d-%d", Source, order.ID, ts),
		Total:          lineitems.Total(items),
		Currency:       currency,
		LineItem:       items,
		WebhookURL:     a.CallbackURL,
		WebhookSecret:  callbackSecret(order.ID, ts),
		RedirectionURL: redirect,
	}
}

// callbackSecret is only material for the gateway to sign its callback with;
// it does not protect the request payload itself.
func callbackSecret(orderID, ts int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d-%d", orderID, ts))
	return hex.EncodeToString(sum[:])
}
