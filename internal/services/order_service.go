package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"waylbridge/internal/lineitems"
	"waylbridge/internal/locale"
	"waylbridge/internal/models"
	"waylbridge/internal/payreq"
)

// ErrLinkCreation marks a payment-gateway failure. The inbound webhook is
// still acknowledged with 200 so Shopify does not redeliver an event whose
// business failure has nothing to do with transport.
var ErrLinkCreation = errors.New("payment link creation failed")

// PaymentLinks is the payment-link provider.
type PaymentLinks interface {
	CreateLink(ctx context.Context, req models.PaymentRequest) (*models.PaymentLink, error)
}

// OrderPlatform is the order-management system. Every durable record this
// service produces lives there.
type OrderPlatform interface {
	StoredPaymentLink(ctx context.Context, orderID string) (*models.StoredPaymentLink, error)
	SetOrderMetafields(ctx context.Context, orderID string, fields []models.Metafield) error
	SetOrderNote(ctx context.Context, orderID, note string) error
	MarkOrderPaid(ctx context.Context, orderID string) error
	AddOrderTags(ctx context.Context, orderID string, tags []string) error
}

type OrderService struct {
	Links     PaymentLinks
	Platform  OrderPlatform
	Builder   lineitems.Builder
	Assembler payreq.Assembler
}

// HandleOrderCreated runs the order-creation flow: reuse any stored link,
// otherwise classify and build line items, create the link, then write the
// link back onto the order. Persistence failures degrade the outcome to
// StatusLinkCreated instead of failing the request - the link already exists
// at the gateway and is still usable.
func (s *OrderService) HandleOrderCreated(ctx context.Context, order models.Order) (*models.PaymentOutcome, error) {
	orderID := strconv.FormatInt(order.ID, 10)
	settings := locale.DisplaySettingsFor(order.CountryCode())
	displayAmount := order.TotalPrice.String() + " " + order.Currency

	stored, err := s.Platform.StoredPaymentLink(ctx, orderID)
	if err != nil {
		// Best effort: a failed lookup must not block link creation.
		log.Printf("stored link lookup failed for order %s: %v", orderID, err)
	}
	if stored != nil {
		log.Printf("order %s already has payment link %s, reusing", orderID, stored.ReferenceID)
		return &models.PaymentOutcome{
			Status:          models.StatusLinkPersisted,
			OrderID:         orderID,
			OrderName:       order.Name,
			ReferenceID:     stored.ReferenceID,
			PayURL:          stored.PayURL,
			PayURLBase:      stored.PayURLBase,
			DisplayAmount:   displayAmount,
			DisplaySettings: settings,
			Reused:          true,
		}, nil
	}

	items := s.Builder.Build(order)
	total := lineitems.Total(items)
	req := s.Assembler.Assemble(order, s.Builder.Conv.Settlement, items)

	link, err := s.Links.CreateLink(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: order %s: %v", ErrLinkCreation, order.Name, err)
	}

	payURL := locale.Decorate(link.URL, settings)
	paymentAmount := fmt.Sprintf("%d %s", total, s.Builder.Conv.Settlement)

	outcome := &models.PaymentOutcome{
		Status:          models.StatusLinkPersisted,
		OrderID:         orderID,
		OrderName:       order.Name,
		ReferenceID:     req.ReferenceID,
		PayURL:          payURL,
		PayURLBase:      link.URL,
		DisplayAmount:   displayAmount,
		PaymentAmount:   paymentAmount,
		DisplaySettings: settings,
	}

	if !s.persistLink(ctx, orderID, order, outcome, link.ID) {
		outcome.Status = models.StatusLinkCreated
	}
	return outcome, nil
}

// persistLink writes the link metafields and the order note. The two calls
// touch disjoint fields and run concurrently, on a context that survives the
// inbound connection dropping. Reports whether both writes landed.
func (s *OrderService) persistLink(ctx context.Context, orderID string, order models.Order, outcome *models.PaymentOutcome, linkID string) bool {
	settingsJSON, _ := json.Marshal(outcome.DisplaySettings)
	fields := []models.Metafield{
		{Key: "pay_url", Value: outcome.PayURL},
		{Key: "pay_url_base", Value: outcome.PayURLBase},
		{Key: "reference_id", Value: outcome.ReferenceID},
		{Key: "link_id", Value: linkID},
		{Key: "display_amount", Value: outcome.DisplayAmount},
		{Key: "payment_amount", Value: outcome.PaymentAmount},
		{Key: "display_settings", Value: string(settingsJSON)},
	}

	note := order.Note + paymentNote(outcome)

	ctx = context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	var metaErr, noteErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		metaErr = s.Platform.SetOrderMetafields(ctx, orderID, fields)
	}()
	go func() {
		defer wg.Done()
		noteErr = s.Platform.SetOrderNote(ctx, orderID, note)
	}()
	wg.Wait()

	if metaErr != nil {
		log.Printf("metafields write failed for order %s: %v", orderID, metaErr)
	}
	if noteErr != nil {
		log.Printf("note write failed for order %s: %v", orderID, noteErr)
	}
	return metaErr == nil && noteErr == nil
}

func paymentNote(o *models.PaymentOutcome) string {
	return fmt.Sprintf(
		"\n\n--- WAYL Payment Link ---\nPay URL: %s\nReference: %s\nDisplay: %s\nPayment: %s\nLanguage: %s\nCurrency Display: %s\nStatus: Pending Payment",
		o.PayURL, o.ReferenceID, o.DisplayAmount, o.PaymentAmount,
		o.DisplaySettings.Language, o.DisplaySettings.Currency,
	)
}
