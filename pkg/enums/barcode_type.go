package enums

import "fmt"

// BarcodeType is the symbology reported by the scanning device.
type BarcodeType string

const (
	BarcodeQR      BarcodeType = "QR"
	BarcodeCode128 BarcodeType = "CODE128"
	BarcodeCode39  BarcodeType = "CODE39"
	BarcodeEAN13   BarcodeType = "EAN13"
	BarcodeUnknown BarcodeType = "UNKNOWN"
)

var validBarcodeTypes = []BarcodeType{
	BarcodeQR,
	BarcodeCode128,
	BarcodeCode39,
	BarcodeEAN13,
	BarcodeUnknown,
}

// String implements fmt.Stringer.
func (b BarcodeType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BarcodeType.
func (b BarcodeType) IsValid() bool {
	for _, candidate := range validBarcodeTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBarcodeType converts raw input into a BarcodeType.
func ParseBarcodeType(value string) (BarcodeType, error) {
	for _, candidate := range validBarcodeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid barcode type %q", value)
}
