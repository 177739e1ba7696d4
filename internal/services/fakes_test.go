package services

import (
	"context"
	"sync"

	"waylbridge/internal/models"
)

// fakePlatform records every write. Methods take a lock because the services
// issue independent writes concurrently.
type fakePlatform struct {
	mu sync.Mutex

	stored    *models.StoredPaymentLink
	storedErr error
	metaErr   error
	noteErr   error
	paidErr   error
	tagsErr   error

	metafields [][]models.Metafield
	notes      []string
	markedPaid []string
	tags       [][]string
}

func (f *fakePlatform) StoredPaymentLink(ctx context.Context, orderID string) (*models.StoredPaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.storedErr
}

func (f *fakePlatform) SetOrderMetafields(ctx context.Context, orderID string, fields []models.Metafield) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metaErr != nil {
		return f.metaErr
	}
	f.metafields = append(f.metafields, fields)
	return nil
}

func (f *fakePlatform) SetOrderNote(ctx context.Context, orderID, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noteErr != nil {
		return f.noteErr
	}
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakePlatform) MarkOrderPaid(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paidErr != nil {
		return f.paidErr
	}
	f.markedPaid = append(f.markedPaid, orderID)
	return nil
}

func (f *fakePlatform) AddOrderTags(ctx context.Context, orderID string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagsErr != nil {
		return f.tagsErr
	}
	f.tags = append(f.tags, tags)
	return nil
}

func (f *fakePlatform) metafieldKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for _, fields := range f.metafields {
		for _, field := range fields {
			keys = append(keys, field.Key)
		}
	}
	return keys
}

type fakeLinks struct {
	mu       sync.Mutex
	link     *models.PaymentLink
	err      error
	requests []models.PaymentRequest
}

func (f *fakeLinks) CreateLink(ctx context.Context, req models.PaymentRequest) (*models.PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return f.link, nil
}
