package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"waylbridge/internal/models"
	"waylbridge/internal/payreq"
)

// ErrMissingReference rejects callbacks that carry no reference id at all.
var ErrMissingReference = errors.New("missing reference id")

// ReconcileService applies payment-completion callbacks back onto orders:
// Pending -> Paid, terminal.
type ReconcileService struct {
	Platform OrderPlatform
	Now      func() time.Time
}

// HandlePaymentCallback validates the reference, and on a completed payment
// issues the three bookkeeping writes. The writes are independent: one
// failing must not stop the others, and none of them fails the callback
// response - the gateway must not retry because of secondary bookkeeping.
// Non-completed statuses are acknowledged without any state change.
func (s *ReconcileService) HandlePaymentCallback(ctx context.Context, cb models.WaylCallback) error {
	if cb.ReferenceID == "" {
		return ErrMissingReference
	}
	orderID, err := payreq.ParseReference(cb.ReferenceID)
	if err != nil {
		return err
	}

	if cb.Status != models.PaymentCompleted {
		log.Printf("order %s: payment status %q acknowledged, no transition", orderID, cb.Status)
		return nil
	}

	completedAt := cb.CompletedAt
	if completedAt == "" {
		completedAt = s.now().UTC().Format(time.RFC3339)
	}

	fields := []models.Metafield{
		{Key: "payment_status", Value: "completed"},
		{Key: "transaction_id", Value: cb.TransactionID},
		{Key: "completed_at", Value: completedAt},
	}

	tags := []string{"WAYL-PAID"}
	if cb.TransactionID != "" {
		tags = append(tags, "WAYL-TX-"+cb.TransactionID)
	}
	tags = append(tags, "WAYL-USD-DISPLAY")

	ctx = context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := s.Platform.MarkOrderPaid(ctx, orderID); err != nil {
			log.Printf("mark paid failed for order %s: %v", orderID, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.Platform.SetOrderMetafields(ctx, orderID, fields); err != nil {
			log.Printf("completion metafields failed for order %s: %v", orderID, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.Platform.AddOrderTags(ctx, orderID, tags); err != nil {
			log.Printf("tagging failed for order %s: %v", orderID, err)
		}
	}()
	wg.Wait()

	log.Printf("order %s marked as paid via WAYL", orderID)
	return nil
}

func (s *ReconcileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
