package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"

	"waylbridge/internal/models"
)

// MetafieldNamespace groups every field this service stores on an order.
const MetafieldNamespace = "wayl"

// Gateway is the order-platform adapter: webhook verification plus the
// handful of Admin GraphQL mutations the bridge needs. All durable state
// lives on the Shopify order record, none here.
type Gateway struct {
	app    goshopify.App
	client *goshopify.Client
}

func New(storeDomain, adminToken, apiKey, webhookSecret string, timeout time.Duration) (*Gateway, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: webhookSecret,
	}
	client, err := goshopify.NewClient(app, storeDomain, adminToken,
		goshopify.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("shopify client: %w", err)
	}
	return &Gateway{app: app, client: client}, nil
}

// VerifyWebhook checks the X-Shopify-Hmac-Sha256 signature against the raw
// request body using a constant-time comparison.
func (g *Gateway) VerifyWebhook(r *http.Request) bool {
	return g.app.VerifyWebhookRequest(r)
}

// OrderGID converts a numeric order id to its Admin API global id.
func OrderGID(orderID string) string {
	return "gid://shopify/Order/" + orderID
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func firstUserError(errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	e := errs[0]
	if len(e.Field) > 0 {
		return fmt.Errorf("shopify: %s: %s", strings.Join(e.Field, "."), e.Message)
	}
	return fmt.Errorf("shopify: %s", e.Message)
}

const metafieldsSetMutation = `
mutation SetPaymentMetafields($metafields: [MetafieldsSetInput!]!) {
	metafieldsSet(metafields: $metafields) {
		metafields {
			key
			value
		}
		userErrors {
			field
			message
		}
	}
}`

// SetOrderMetafields upserts key/values in the wayl namespace on the order.
func (g *Gateway) SetOrderMetafields(ctx context.Context, orderID string, fields []models.Metafield) error {
	inputs := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		inputs = append(inputs, map[string]any{
			"ownerId":   OrderGID(orderID),
			"namespace": MetafieldNamespace,
			"key":       f.Key,
			"type":      "single_line_text_field",
			"value":     f.Value,
		})
	}

	var out struct {
		MetafieldsSet struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	err := g.client.GraphQL.Query(ctx, metafieldsSetMutation, map[string]any{"metafields": inputs}, &out)
	if err != nil {
		return fmt.Errorf("shopify metafieldsSet: %w", err)
	}
	return firstUserError(out.MetafieldsSet.UserErrors)
}

const orderUpdateMutation = `
mutation orderUpdate($input: OrderInput!) {
	orderUpdate(input: $input) {
		order {
			id
			note
		}
		userErrors {
			field
			message
		}
	}
}`

// SetOrderNote replaces the order note. Callers append to the note they
// already carry from the webhook payload.
func (g *Gateway) SetOrderNote(ctx context.Context, orderID, note string) error {
	var out struct {
		OrderUpdate struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"orderUpdate"`
	}
	vars := map[string]any{
		"input": map[string]any{
			"id":   OrderGID(orderID),
			"note": note,
		},
	}
	if err := g.client.GraphQL.Query(ctx, orderUpdateMutation, vars, &out); err != nil {
		return fmt.Errorf("shopify orderUpdate: %w", err)
	}
	return firstUserError(out.OrderUpdate.UserErrors)
}

const markPaidMutation = `
mutation orderMarkAsPaid($input: OrderMarkAsPaidInput!) {
	orderMarkAsPaid(input: $input) {
		order {
			id
			displayFinancialStatus
		}
		userErrors {
			field
			message
		}
	}
}`

// MarkOrderPaid transitions the order to paid. Shopify treats marking an
// already-paid order as a no-op, which is what makes callback redelivery
// safe; that idempotency is the platform's contract, not enforced here.
func (g *Gateway) MarkOrderPaid(ctx context.Context, orderID string) error {
	var out struct {
		OrderMarkAsPaid struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"orderMarkAsPaid"`
	}
	vars := map[string]any{
		"input": map[string]any{"id": OrderGID(orderID)},
	}
	if err := g.client.GraphQL.Query(ctx, markPaidMutation, vars, &out); err != nil {
		return fmt.Errorf("shopify orderMarkAsPaid: %w", err)
	}
	return firstUserError(out.OrderMarkAsPaid.UserErrors)
}

const tagsAddMutation = `
mutation tagsAdd($id: ID!, $tags: [String!]!) {
	tagsAdd(id: $id, tags: $tags) {
		node {
			id
		}
		userErrors {
			field
			message
		}
	}
}`

// AddOrderTags appends tags. The platform keeps tags as a set, so repeated
// adds do not duplicate.
func (g *Gateway) AddOrderTags(ctx context.Context, orderID string, tags []string) error {
	var out struct {
		TagsAdd struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"tagsAdd"`
	}
	vars := map[string]any{
		"id":   OrderGID(orderID),
		"tags": tags,
	}
	if err := g.client.GraphQL.Query(ctx, tagsAddMutation, vars, &out); err != nil {
		return fmt.Errorf("shopify tagsAdd: %w", err)
	}
	return firstUserError(out.TagsAdd.UserErrors)
}

const storedLinkQuery = `
query StoredPaymentLink($id: ID!) {
	order(id: $id) {
		payUrl: metafield(namespace: "wayl", key: "pay_url") { value }
		payUrlBase: metafield(namespace: "wayl", key: "pay_url_base") { value }
		referenceId: metafield(namespace: "wayl", key: "reference_id") { value }
		linkId: metafield(namespace: "wayl", key: "link_id") { value }
	}
}`

// StoredPaymentLink fetches a previously persisted link. Returns (nil, nil)
// when the order has none.
func (g *Gateway) StoredPaymentLink(ctx context.Context, orderID string) (*models.StoredPaymentLink, error) {
	type metaValue struct {
		Value string `json:"value"`
	}
	var out struct {
		Order *struct {
			PayURL      *metaValue `json:"payUrl"`
			PayURLBase  *metaValue `json:"payUrlBase"`
			ReferenceID *metaValue `json:"referenceId"`
			LinkID      *metaValue `json:"linkId"`
		} `json:"order"`
	}
	vars := map[string]any{"id": OrderGID(orderID)}
	if err := g.client.GraphQL.Query(ctx, storedLinkQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("shopify stored link: %w", err)
	}
	if out.Order == nil || out.Order.PayURL == nil || out.Order.PayURL.Value == "" {
		return nil, nil
	}

	link := &models.StoredPaymentLink{PayURL: out.Order.PayURL.Value}
	if out.Order.PayURLBase != nil {
		link.PayURLBase = out.Order.PayURLBase.Value
	}
	if out.Order.ReferenceID != nil {
		link.ReferenceID = out.Order.ReferenceID.Value
	}
	if out.Order.LinkID != nil {
		link.LinkID = out.Order.LinkID.Value
	}
	return link, nil
}
