package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money decodes Shopify's decimal-string price fields. Absent, empty or
// unparseable values decode to zero rather than failing the whole payload.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		m.Decimal = decimal.Zero
		return nil
	}
	m.Decimal = d
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.String())
}

type Order struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	TotalPrice     Money          `json:"total_price"`
	Currency       string         `json:"currency"`
	LineItems      []OrderLine    `json:"line_items"`
	ShippingLines  []ShippingLine `json:"shipping_lines"`
	TaxLines       []TaxLine      `json:"tax_lines"`
	OrderStatusURL string         `json:"order_status_url"`
	Note           string         `json:"note"`
	ShippingAddr   *Address       `json:"shipping_address"`
	BillingAddr    *Address       `json:"billing_address"`
}

// CountryCode returns the shipping country when present, else billing, else "".
func (o Order) CountryCode() string {
	if o.ShippingAddr != nil && o.ShippingAddr.CountryCode != "" {
		return o.ShippingAddr.CountryCode
	}
	if o.BillingAddr != nil && o.BillingAddr.CountryCode != "" {
		return o.BillingAddr.CountryCode
	}
	return ""
}

type OrderLine struct {
	Title           string `json:"title"`
	Price           Money  `json:"price"`
	Quantity        int    `json:"quantity"`
	CompareAtPrice  Money  `json:"compare_at_price"`
	VariantImageURL string `json:"variant_image_url"`
	ImageURL        string `json:"image_url"`
}

type ShippingLine struct {
	Title string `json:"title"`
	Price Money  `json:"price"`
}

type TaxLine struct {
	Title string `json:"title"`
	Price Money  `json:"price"`
}

type Address struct {
	CountryCode string `json:"country_code"`
}

// LineItemIncrease is the only kind WAYL accepts: every line adds to the total.
const LineItemIncrease = "increase"

type PayableLineItem struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
	Image  string `json:"image"`
}

// PaymentRequest is the outbound WAYL link-creation payload. Built once per
// accepted order webhook, never mutated.
type PaymentRequest struct {
	ReferenceID    string            `json:"referenceId"`
	Total          int64             `json:"total"`
	Currency       string            `json:"currency"`
	LineItem       []PayableLineItem `json:"lineItem"`
	WebhookURL     string            `json:"webhookUrl"`
	WebhookSecret  string            `json:"webhookSecret"`
	RedirectionURL string            `json:"redirectionUrl"`
}

// PaymentLink is the gateway's answer to a link-creation request.
type PaymentLink struct {
	URL string
	ID  string
}

// StoredPaymentLink is what a previously handled order carries in its
// metafields. Read back so link creation behaves as an upsert.
type StoredPaymentLink struct {
	PayURL      string
	PayURLBase  string
	ReferenceID string
	LinkID      string
}

// Metafield is one key/value persisted on the order record. The namespace is
// fixed by the platform gateway.
type Metafield struct {
	Key   string
	Value string
}

type OutcomeStatus string

const (
	// StatusLinkCreated: the pay link exists at the gateway but at least one
	// bookkeeping write back to the order failed. Payment is still usable.
	StatusLinkCreated OutcomeStatus = "link_created"
	// StatusLinkPersisted: link created and stored on the order.
	StatusLinkPersisted OutcomeStatus = "link_persisted"
)

// PaymentOutcome reports the two-phase result of handling an order webhook.
type PaymentOutcome struct {
	Status          OutcomeStatus
	OrderID         string
	OrderName       string
	ReferenceID     string
	PayURL          string
	PayURLBase      string
	DisplayAmount   string
	PaymentAmount   string
	DisplaySettings DisplaySettings
	Reused          bool
}

type DisplaySettings struct {
	Language        string `json:"language"`
	Currency        string `json:"currency"`
	DisplayCurrency string `json:"display_currency"`
}

// WaylCallback is the parsed payment-completion webhook.
type WaylCallback struct {
	Status        string
	ReferenceID   string
	TransactionID string
	CompletedAt   string
}

// PaymentCompleted is the only WAYL status that drives an order transition.
const PaymentCompleted = "Completed"
