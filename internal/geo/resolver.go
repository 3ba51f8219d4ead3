package geo

import (
	"context"
	"net/http"
	"strings"
)

// Region is a coarse routing bucket. It is deliberately broader than a
// country: single large markets keep their country code while multi-country
// groupings collapse into one label.
type Region string

const (
	RegionUS      Region = "US"
	RegionIN      Region = "IN"
	RegionEU      Region = "EU"
	RegionAfrica  Region = "AFRICA"
	RegionLatam   Region = "LATAM"
	RegionDefault Region = "DEFAULT"
)

// Location is the resolved geography of a request. It is produced once per
// request and attached read-only to the final result.
type Location struct {
	Region  Region `json:"region"`
	Country string `json:"country,omitempty"`
}

// Query carries the hints available for resolving a request's location.
// Explicit country wins over headers, headers win over the currency hint.
type Query struct {
	IP       string
	Headers  http.Header
	Country  string
	Currency string
}

// Resolver answers where a request comes from and which currencies make
// sense there.
type Resolver interface {
	Resolve(ctx context.Context, q Query) (Location, error)
	IsCurrencySupportedInRegion(currency string, region Region) bool
	AlternativeCurrencies(region Region) []string
}

// countryRegions maps ISO 3166-1 alpha-2 country codes onto routing regions.
var countryRegions = map[string]Region{
	"US": RegionUS,
	"IN": RegionIN,

	"AT": RegionEU, "BE": RegionEU, "DE": RegionEU, "ES": RegionEU,
	"FI": RegionEU, "FR": RegionEU, "IE": RegionEU, "IT": RegionEU,
	"NL": RegionEU, "PT": RegionEU,

	"NG": RegionAfrica, "KE": RegionAfrica, "ZA": RegionAfrica,
	"GH": RegionAfrica, "EG": RegionAfrica, "TZ": RegionAfrica,

	"BR": RegionLatam, "MX": RegionLatam, "AR": RegionLatam,
	"CO": RegionLatam, "CL": RegionLatam, "PE": RegionLatam,
}

// regionCurrencies lists the currencies commonly used per region. The first
// entry is the preferred settlement currency.
var regionCurrencies = map[Region][]string{
	RegionUS:      {"USD"},
	RegionIN:      {"INR", "USD"},
	RegionEU:      {"EUR", "GBP", "USD"},
	RegionAfrica:  {"NGN", "KES", "ZAR", "GHS", "USD"},
	RegionLatam:   {"BRL", "MXN", "ARS", "COP", "USD"},
	RegionDefault: {"USD", "EUR", "GBP", "CAD", "AUD", "SGD", "JPY"},
}

// currencyRegions lets a currency hint resolve a region when nothing else is
// available.
var currencyRegions = map[string]Region{
	"INR": RegionIN,
	"NGN": RegionAfrica, "KES": RegionAfrica, "ZAR": RegionAfrica, "GHS": RegionAfrica,
	"BRL": RegionLatam, "MXN": RegionLatam, "ARS": RegionLatam, "COP": RegionLatam,
	"EUR": RegionEU,
	"USD": RegionUS,
}

// Static resolves locations from fixed lookup tables, using the country
// headers edge proxies inject. A real IP database sits behind the same
// interface in deployments that need one.
type Static struct{}

var _ Resolver = Static{}

// Resolve derives the request location from the strongest available hint.
func (Static) Resolve(_ context.Context, q Query) (Location, error) {
	if country := normalizeCountry(q.Country); country != "" {
		return locationFor(country), nil
	}
	if q.Headers != nil {
		for _, header := range []string{"CF-IPCountry", "X-Country-Code", "CloudFront-Viewer-Country"} {
			if country := normalizeCountry(q.Headers.Get(header)); country != "" {
				return locationFor(country), nil
			}
		}
	}
	if currency := strings.ToUpper(strings.TrimSpace(q.Currency)); currency != "" {
		if region, ok := currencyRegions[currency]; ok {
			return Location{Region: region}, nil
		}
	}
	return Location{Region: RegionDefault}, nil
}

// IsCurrencySupportedInRegion reports whether the currency is commonly used
// in the region.
func (Static) IsCurrencySupportedInRegion(currency string, region Region) bool {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	for _, candidate := range regionCurrencies[regionOrDefault(region)] {
		if candidate == currency {
			return true
		}
	}
	return false
}

// AlternativeCurrencies returns the currencies usable in the region, preferred
// first. The slice is a copy; callers may reorder it.
func (Static) AlternativeCurrencies(region Region) []string {
	src := regionCurrencies[regionOrDefault(region)]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func normalizeCountry(raw string) string {
	country := strings.ToUpper(strings.TrimSpace(raw))
	if len(country) != 2 || country == "XX" {
		return ""
	}
	return country
}

func locationFor(country string) Location {
	if region, ok := countryRegions[country]; ok {
		return Location{Region: region, Country: country}
	}
	return Location{Region: RegionDefault, Country: country}
}

func regionOrDefault(region Region) Region {
	if _, ok := regionCurrencies[region]; ok {
		return region
	}
	return RegionDefault
}
