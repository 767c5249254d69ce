package service

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"go-birthday-card/internal/model"
)

const (
	currencyINR = "INR"
	currencyUSD = "USD"
	currencyEUR = "EUR"
)

var donationPresets = map[string][]int{
	currencyINR: {19, 29, 49},
	currencyUSD: {1, 3, 5},
	currencyEUR: {1, 3, 5},
}

var currencySymbols = map[string]string{
	currencyINR: "₹",
	currencyUSD: "$",
	currencyEUR: "€",
}

// geoHeaders are set by the edge in front of the service.
var geoHeaders = []string{"X-Vercel-IP-Country", "CF-IPCountry", "X-Country-Code"}

// DetectCurrency picks INR, USD or EUR for the caller. Edge geo headers win;
// otherwise the first Accept-Language tag that names or implies a region is
// used. Anything unsupported falls back to USD.
func DetectCurrency(h http.Header) string {
	for _, name := range geoHeaders {
		if code := strings.TrimSpace(h.Get(name)); code != "" {
			if region, err := language.ParseRegion(code); err == nil {
				return currencyForRegion(region)
			}
		}
	}

	tags, _, err := language.ParseAcceptLanguage(h.Get("Accept-Language"))
	if err != nil {
		return currencyUSD
	}
	for _, tag := range tags {
		region, conf := tag.Region()
		if conf == language.Exact {
			return currencyForRegion(region)
		}
		if base, _ := tag.Base(); base.String() == "hi" {
			return currencyINR
		}
	}
	return currencyUSD
}

func currencyForRegion(region language.Region) string {
	unit, ok := currency.FromRegion(region)
	if !ok {
		return currencyUSD
	}
	code := unit.String()
	if _, supported := donationPresets[code]; supported {
		return code
	}
	return currencyUSD
}

func DonationOptionsFor(code string) model.DonationOptions {
	amounts, ok := donationPresets[code]
	if !ok {
		code = currencyUSD
		amounts = donationPresets[code]
	}
	symbol := currencySymbols[code]

	options := make([]model.DonationOption, 0, len(amounts))
	for _, amount := range amounts {
		options = append(options, model.DonationOption{
			Amount: amount,
			Label:  fmt.Sprintf("Donate %s%d", symbol, amount),
		})
	}
	return model.DonationOptions{Currency: code, Symbol: symbol, Options: options}
}
