package enums

import "fmt"

// Carrier identifies the shipping partner collecting a manifest.
type Carrier string

const (
	CarrierDelhivery      Carrier = "DELHIVERY"
	CarrierEkart          Carrier = "EKART"
	CarrierShadowfax      Carrier = "SHADOWFAX"
	CarrierBluedart       Carrier = "BLUEDART"
	CarrierAmazonShipping Carrier = "AMAZON_SHIPPING"
)

var validCarriers = []Carrier{
	CarrierDelhivery,
	CarrierEkart,
	CarrierShadowfax,
	CarrierBluedart,
	CarrierAmazonShipping,
}

// String implements fmt.Stringer.
func (c Carrier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Carrier.
func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCarrier converts raw input into a Carrier.
func ParseCarrier(value string) (Carrier, error) {
	for _, candidate := range validCarriers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid carrier %q", value)
}
