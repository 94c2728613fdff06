package enums

import "fmt"

// Marketplace identifies the sales channel a manifest serves.
type Marketplace string

const (
	MarketplaceAmazon   Marketplace = "AMAZON"
	MarketplaceFlipkart Marketplace = "FLIPKART"
	MarketplaceMyntra   Marketplace = "MYNTRA"
	MarketplaceJiomart  Marketplace = "JIOMART"
	MarketplaceMeesho   Marketplace = "MEESHO"
	MarketplaceAjio     Marketplace = "AJIO"
)

var validMarketplaces = []Marketplace{
	MarketplaceAmazon,
	MarketplaceFlipkart,
	MarketplaceMyntra,
	MarketplaceJiomart,
	MarketplaceMeesho,
	MarketplaceAjio,
}

// String implements fmt.Stringer.
func (m Marketplace) String() string {
	return string(m)
}

// IsValid reports whether the value is a known Marketplace.
func (m Marketplace) IsValid() bool {
	for _, candidate := range validMarketplaces {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMarketplace converts raw input into a Marketplace.
func ParseMarketplace(value string) (Marketplace, error) {
	for _, candidate := range validMarketplaces {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid marketplace %q", value)
}
