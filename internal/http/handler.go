package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"waylbridge/internal/locale"
	"waylbridge/internal/models"
	"waylbridge/internal/payreq"
	"waylbridge/internal/services"
)

const maxWebhookBody = 2 << 20

// WebhookVerifier checks the HMAC signature of an inbound Shopify webhook.
type WebhookVerifier interface {
	VerifyWebhook(r *http.Request) bool
}

// AuthProber checks connectivity to the payment gateway.
type AuthProber interface {
	VerifyAuthKey(ctx context.Context) (int, error)
}

type Handler struct {
	Orders    *services.OrderService
	Reconcile *services.ReconcileService
	Platform  services.OrderPlatform
	Verifier  WebhookVerifier
	Prober    AuthProber

	Production bool
	Rate       int64
	PayBase    string
}

func NewHandler(orders *services.OrderService, reconcile *services.ReconcileService, platform services.OrderPlatform) *Handler {
	return &Handler{Orders: orders, Reconcile: reconcile, Platform: platform}
}

type orderCreatedResponse struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	OrderID         string                 `json:"order_id"`
	ReferenceID     string                 `json:"reference_id,omitempty"`
	PayURL          string                 `json:"pay_url,omitempty"`
	PayURLBase      string                 `json:"pay_url_base,omitempty"`
	DisplayAmount   string                 `json:"display_amount,omitempty"`
	PaymentAmount   string                 `json:"payment_amount,omitempty"`
	DisplaySettings *models.DisplaySettings `json:"display_settings,omitempty"`
	ConversionRate  int64                  `json:"conversion_rate,omitempty"`
	LinkPersisted   bool                   `json:"link_persisted"`
	Reused          bool                   `json:"reused,omitempty"`
}

// ShopifyOrderCreated handles the order-creation webhook. The raw body is
// kept for signature verification; in production a bad signature is a hard
// 401 with no side effects. A gateway failure still answers 200 so Shopify
// does not redeliver - business failure is reported in the JSON body.
func (h *Handler) ShopifyOrderCreated(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if h.Production && (h.Verifier == nil || !h.Verifier.VerifyWebhook(r)) {
		writeError(w, http.StatusUnauthorized, "invalid hmac")
		return
	}

	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	outcome, err := h.Orders.HandleOrderCreated(r.Context(), order)
	if err != nil {
		if errors.Is(err, services.ErrLinkCreation) {
			writeJSON(w, http.StatusOK, orderCreatedResponse{
				Success: false,
				Message: "order " + order.Name + " received but payment link creation failed",
				OrderID: cast.ToString(order.ID),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "order processing failed")
		return
	}

	writeJSON(w, http.StatusOK, orderCreatedResponse{
		Success:         true,
		Message:         "payment link created for order " + outcome.OrderName,
		OrderID:         outcome.OrderID,
		ReferenceID:     outcome.ReferenceID,
		PayURL:          outcome.PayURL,
		PayURLBase:      outcome.PayURLBase,
		DisplayAmount:   outcome.DisplayAmount,
		PaymentAmount:   outcome.PaymentAmount,
		DisplaySettings: &outcome.DisplaySettings,
		ConversionRate:  h.Rate,
		LinkPersisted:   outcome.Status == models.StatusLinkPersisted,
		Reused:          outcome.Reused,
	})
}

// WaylPayment handles the payment-completion webhook. Gateway payload
// scalars arrive as string or number depending on version, so fields are
// coerced instead of strictly decoded.
func (h *Handler) WaylPayment(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	cb := models.WaylCallback{
		Status:        cast.ToString(payload["status"]),
		ReferenceID:   cast.ToString(payload["referenceId"]),
		TransactionID: cast.ToString(payload["id"]),
		CompletedAt:   cast.ToString(payload["completedAt"]),
	}

	if err := h.Reconcile.HandlePaymentCallback(r.Context(), cb); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingReference):
			writeError(w, http.StatusBadRequest, "missing referenceId")
		case errors.Is(err, payreq.ErrBadReference):
			writeError(w, http.StatusBadRequest, "invalid referenceId format")
		default:
			writeError(w, http.StatusInternalServerError, "payment callback failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Pay redirects the browser to a decorated pay link for a known reference.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	referenceID := chi.URLParam(r, "referenceID")
	if referenceID == "" {
		writeError(w, http.StatusBadRequest, "missing reference id")
		return
	}

	base := r.URL.Query().Get("base_url")
	if base == "" {
		base = h.PayBase + "?id=" + referenceID
	}

	country := r.URL.Query().Get("country")
	if country == "" {
		country = DetectCountry(r)
	}
	settings := locale.DisplaySettingsFor(country)

	http.Redirect(w, r, locale.Decorate(base, settings), http.StatusFound)
}

// OrderPay looks up the link stored on the order and redirects to it.
func (h *Handler) OrderPay(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	stored, err := h.Platform.StoredPaymentLink(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "payment link lookup failed")
		return
	}
	if stored == nil {
		writeError(w, http.StatusNotFound, "payment link not found")
		return
	}
	http.Redirect(w, r, stored.PayURL, http.StatusFound)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	country := DetectCountry(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"detected_country": country,
		"display_settings": locale.DisplaySettingsFor(country),
		"conversion_rate":  h.Rate,
	})
}

// TestWayl probes the WAYL API with the configured auth key.
func (h *Handler) TestWayl(w http.ResponseWriter, r *http.Request) {
	country := DetectCountry(r)
	status, err := h.Prober.VerifyAuthKey(r.Context())
	resp := map[string]any{
		"wayl_api_status":  "ok",
		"status_code":      status,
		"detected_country": country,
		"display_settings": locale.DisplaySettingsFor(country),
		"conversion_rate":  h.Rate,
	}
	if err != nil {
		resp["wayl_api_status"] = "error"
		resp["error"] = err.Error()
		if status == 0 {
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
