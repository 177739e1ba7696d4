package lineitems

import (
	"github.com/shopspring/decimal"

	"waylbridge/internal/classify"
	"waylbridge/internal/currency"
	"waylbridge/internal/images"
	"waylbridge/internal/models"
)

// FreeAmount is the nominal charge for a free line: the gateway rejects
// zero-amount lines, so "free" is presented as 1 settlement unit.
const FreeAmount = 1

// Builder maps an order's products, shipping and taxes to the payable line
// items submitted to the gateway.
type Builder struct {
	Conv          currency.Converter
	Classifier    *classify.Classifier
	Images        *images.Resolver
	ShippingImage string
	TaxImage      string
	OrderImage    string
}

// Build returns at least one item. The sum of the returned amounts is the
// exact total later submitted to the gateway.
func (b Builder) Build(order models.Order) []models.PayableLineItem {
	var items []models.PayableLineItem

	for _, line := range order.LineItems {
		items = append(items, b.productItem(line, order.Currency))
	}

	for _, shipping := range order.ShippingLines {
		items = append(items, b.shippingItem(shipping, order.Currency))
	}

	for _, tax := range order.TaxLines {
		if !tax.Price.IsPositive() {
			continue
		}
		items = append(items, models.PayableLineItem{
			Label:  "Tax - " + tax.Title,
			Amount: b.Conv.ToSettlement(tax.Price.Decimal, order.Currency),
			Type:   models.LineItemIncrease,
			Image:  b.TaxImage,
		})
	}

	if len(items) == 0 {
		items = append(items, models.PayableLineItem{
			Label:  "Order " + order.Name,
			Amount: b.Conv.ToSettlement(order.TotalPrice.Decimal, order.Currency),
			Type:   models.LineItemIncrease,
			Image:  b.OrderImage,
		})
	}

	return items
}

// Total sums the payable amounts. Kept next to Build so the submitted total
// can never drift from the line items.
func Total(items []models.PayableLineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Amount
	}
	return sum
}

func (b Builder) productItem(line models.OrderLine, orderCurrency string) models.PayableLineItem {
	title := line.Title
	if title == "" {
		title = "Product"
	}

	result := b.Classifier.Classify(classify.Line{
		Title:     title,
		Price:     line.Price.Decimal,
		CompareAt: line.CompareAtPrice.Decimal,
	})

	label := title
	var amount int64
	if result.Free {
		amount = FreeAmount
		if !classify.TitleHasKeyword(title, []string{"free"}) {
			label = "FREE " + title
		}
	} else {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		lineTotal := line.Price.Decimal.Mul(decimal.NewFromInt(int64(qty)))
		amount = b.Conv.ToSettlement(lineTotal, orderCurrency)
	}

	image := line.VariantImageURL
	if image == "" {
		image = line.ImageURL
	}
	if image == "" {
		image = b.Images.ForTitle(title)
	}

	return models.PayableLineItem{
		Label:  label,
		Amount: amount,
		Type:   models.LineItemIncrease,
		Image:  image,
	}
}

func (b Builder) shippingItem(shipping models.ShippingLine, orderCurrency string) models.PayableLineItem {
	if shipping.Price.IsZero() {
		return models.PayableLineItem{
			Label:  "Free Shipping",
			Amount: FreeAmount,
			Type:   models.LineItemIncrease,
			Image:  b.ShippingImage,
		}
	}
	return models.PayableLineItem{
		Label:  "Shipping - " + shipping.Title,
		Amount: b.Conv.ToSettlement(shipping.Price.Decimal, orderCurrency),
		Type:   models.LineItemIncrease,
		Image:  b.ShippingImage,
	}
}
