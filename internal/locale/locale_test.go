package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"waylbridge/internal/models"
)

func TestDisplaySettingsFor(t *testing.T) {
	tests := []struct {
		country  string
		language string
		currency string
	}{
		{"IQ", "ar", "iqd"},
		{"SA", "ar", "iqd"},
		{"AE", "ar", "iqd"},
		{"US", "en", "usd"},
		{"GB", "en", "usd"},
		{"de", "en", "usd"},
		{"BR", "en", "usd"},
		{"", "en", "usd"},
	}

	for _, tt := range tests {
		t.Run("country "+tt.country, func(t *testing.T) {
			s := DisplaySettingsFor(tt.country)
			assert.Equal(t, tt.language, s.Language)
			assert.Equal(t, tt.currency, s.Currency)
		})
	}
}

func TestDecorate(t *testing.T) {
	ar := models.DisplaySettings{Language: "ar", Currency: "iqd"}

	got := Decorate("https://link.thewayl.com/pay?id=abc", ar)
	assert.Contains(t, got, "id=abc")
	assert.Contains(t, got, "lang=ar")
	assert.Contains(t, got, "currency=iqd")

	// Parameters already present on the gateway URL win.
	got = Decorate("https://link.thewayl.com/pay?lang=en&currency=usd", ar)
	assert.Contains(t, got, "lang=en")
	assert.Contains(t, got, "currency=usd")
	assert.NotContains(t, got, "lang=ar")
}

func TestDecorateBadURL(t *testing.T) {
	s := models.DisplaySettings{Language: "en", Currency: "usd"}
	assert.Equal(t, "://bad", Decorate("://bad", s))
}
