package locale

import (
	"net/url"
	"strings"

	"waylbridge/internal/models"
)

// Display hints only. Settlement math never reads this table.
var settings = map[string]models.DisplaySettings{
	"US": {Language: "en", Currency: "usd", DisplayCurrency: "USD"},
	"GB": {Language: "en", Currency: "usd", DisplayCurrency: "USD"},
	"CA": {Language: "en", Currency: "usd", DisplayCurrency: "USD"},
	"AU": {Language: "en", Currency: "usd", DisplayCurrency: "USD"},
	"DE": {Language: "en", Currency: "usd", DisplayCurrency: "USD"},
	"FR": {Language: "en", Currency: "usd", DisplayCurrency: "USD"},
	"IQ": {Language: "ar", Currency: "iqd", DisplayCurrency: "IQD"},
	"SA": {Language: "ar", Currency: "iqd", DisplayCurrency: "IQD"},
	"AE": {Language: "ar", Currency: "iqd", DisplayCurrency: "IQD"},
}

// DisplaySettingsFor maps a country code to language/currency hints.
// Unknown countries get the international default.
func DisplaySettingsFor(country string) models.DisplaySettings {
	if s, ok := settings[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return s
	}
	return settings["US"]
}

// Decorate appends lang/currency query parameters to a pay URL. Parameters
// already present on the gateway's URL are left untouched.
func Decorate(payURL string, s models.DisplaySettings) string {
	u, err := url.Parse(payURL)
	if err != nil {
		return payURL
	}
	q := u.Query()
	if q.Get("lang") == "" {
		q.Set("lang", s.Language)
	}
	if q.Get("currency") == "" {
		q.Set("currency", s.Currency)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
