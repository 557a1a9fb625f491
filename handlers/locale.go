package handlers

import "strings"

// Donor-facing error messages keyed by locale. Polish is the site default;
// anything starting with "en" gets English.
var messages = map[string]map[string]string{
	"pl": {
		"invalidAmount":      "Nieprawidłowa kwota.",
		"invalidEmail":       "Nieprawidłowy adres email.",
		"invalidPaymentType": "Nieprawidłowy typ płatności.",
		"serverError":        "Błąd serwera podczas tworzenia płatności.",
	},
	"en": {
		"invalidAmount":      "Invalid amount.",
		"invalidEmail":       "Invalid email address.",
		"invalidPaymentType": "Invalid payment type.",
		"serverError":        "Server error while creating the payment.",
	},
}

func localizedMessage(locale, key string) string {
	lang := "pl"
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		lang = "en"
	}
	return messages[lang][key]
}
