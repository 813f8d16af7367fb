package routing

import "strings"

// countryRegions maps ISO 3166-1 alpha-2 country codes to backend regions.
// Unmapped countries resolve to the configured default region.
var countryRegions = map[string]string{
	// Americas
	"US": "us-east",
	"CA": "us-east",
	"MX": "us-east",
	"BR": "us-east",
	"AR": "us-east",

	// Europe, Middle East, Africa
	"GB": "eu-west",
	"IE": "eu-west",
	"FR": "eu-west",
	"DE": "eu-west",
	"NL": "eu-west",
	"ES": "eu-west",
	"IT": "eu-west",
	"PL": "eu-west",
	"SE": "eu-west",
	"ZA": "eu-west",

	// Asia-Pacific
	"IN": "ap-south",
	"SG": "ap-south",
	"JP": "ap-south",
	"KR": "ap-south",
	"CN": "ap-south",
	"AU": "ap-south",
	"NZ": "ap-south",
}

// ResolveRegion maps a request's origin country hint to a backend region.
// The hint is case-insensitive; an empty or unmapped hint resolves to
// defaultRegion.
func ResolveRegion(countryHint, defaultRegion string) string {
	if countryHint == "" {
		return defaultRegion
	}
	if region, ok := countryRegions[strings.ToUpper(countryHint)]; ok {
		return region
	}
	return defaultRegion
}
