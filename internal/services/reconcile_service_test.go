package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waylbridge/internal/models"
	"waylbridge/internal/payreq"
)

func completedCallback() models.WaylCallback {
	return models.WaylCallback{
		Status:        "Completed",
		ReferenceID:   "SHOPIFY-88213-1699999999999",
		TransactionID: "tx-42",
		CompletedAt:   "2026-01-15T10:00:00Z",
	}
}

func TestHandlePaymentCallbackCompleted(t *testing.T) {
	platform := &fakePlatform{}
	svc := &ReconcileService{Platform: platform}

	err := svc.HandlePaymentCallback(context.Background(), completedCallback())
	require.NoError(t, err)

	assert.Equal(t, []string{"88213"}, platform.markedPaid)

	keys := platform.metafieldKeys()
	assert.Contains(t, keys, "payment_status")
	assert.Contains(t, keys, "transaction_id")
	assert.Contains(t, keys, "completed_at")

	require.Len(t, platform.tags, 1)
	assert.Equal(t, []string{"WAYL-PAID", "WAYL-TX-tx-42", "WAYL-USD-DISPLAY"}, platform.tags[0])
}

func TestHandlePaymentCallbackMissingReference(t *testing.T) {
	platform := &fakePlatform{}
	svc := &ReconcileService{Platform: platform}

	err := svc.HandlePaymentCallback(context.Background(), models.WaylCallback{Status: "Completed"})
	assert.ErrorIs(t, err, ErrMissingReference)
	assert.Empty(t, platform.markedPaid)
}

func TestHandlePaymentCallbackBadReference(t *testing.T) {
	platform := &fakePlatform{}
	svc := &ReconcileService{Platform: platform}

	cb := models.WaylCallback{Status: "Completed", ReferenceID: "BADFORMAT-xyz"}
	err := svc.HandlePaymentCallback(context.Background(), cb)
	assert.ErrorIs(t, err, payreq.ErrBadReference)
	assert.Empty(t, platform.markedPaid)
}

func TestHandlePaymentCallbackOtherStatus(t *testing.T) {
	platform := &fakePlatform{}
	svc := &ReconcileService{Platform: platform}

	cb := completedCallback()
	cb.Status = "Failed"

	// Explicitly not an error: acknowledged without any state change.
	err := svc.HandlePaymentCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.Empty(t, platform.markedPaid)
	assert.Empty(t, platform.metafields)
	assert.Empty(t, platform.tags)
}

func TestHandlePaymentCallbackPartialFailure(t *testing.T) {
	platform := &fakePlatform{paidErr: errors.New("shopify 500")}
	svc := &ReconcileService{Platform: platform}

	// Mark-paid failing must not block the other writes nor fail the
	// response, or the gateway would retry forever.
	err := svc.HandlePaymentCallback(context.Background(), completedCallback())
	require.NoError(t, err)
	assert.NotEmpty(t, platform.metafields)
	assert.NotEmpty(t, platform.tags)
}

func TestHandlePaymentCallbackTwiceIsSafe(t *testing.T) {
	platform := &fakePlatform{}
	svc := &ReconcileService{Platform: platform}

	cb := completedCallback()
	require.NoError(t, svc.HandlePaymentCallback(context.Background(), cb))
	require.NoError(t, svc.HandlePaymentCallback(context.Background(), cb))

	// Both deliveries reach the platform; mark-paid is idempotent and tags
	// are a set at the platform level, so the second pass is a no-op there.
	assert.Equal(t, []string{"88213", "88213"}, platform.markedPaid)
	assert.Len(t, platform.tags, 2)
	assert.Equal(t, platform.tags[0], platform.tags[1])
}

func TestHandlePaymentCallbackNoTransactionID(t *testing.T) {
	platform := &fakePlatform{}
	svc := &ReconcileService{Platform: platform}

	cb := completedCallback()
	cb.TransactionID = ""
	require.NoError(t, svc.HandlePaymentCallback(context.Background(), cb))

	require.Len(t, platform.tags, 1)
	assert.Equal(t, []string{"WAYL-PAID", "WAYL-USD-DISPLAY"}, platform.tags[0])
}

func TestHandlePaymentCallbackDefaultsCompletedAt(t *testing.T) {
	platform := &fakePlatform{}
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc := &ReconcileService{Platform: platform, Now: func() time.Time { return now }}

	cb := completedCallback()
	cb.CompletedAt = ""
	require.NoError(t, svc.HandlePaymentCallback(context.Background(), cb))

	var completedAt string
	for _, fields := range platform.metafields {
		for _, f := range fields {
			if f.Key == "completed_at" {
				completedAt = f.Value
			}
		}
	}
	assert.Equal(t, "2026-02-01T12:00:00Z", completedAt)
}
