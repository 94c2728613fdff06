package enums

import "fmt"

// FlowType is the shipment direction a manifest tracks.
type FlowType string

const (
	FlowDispatch FlowType = "DISPATCH"
	FlowReturn   FlowType = "RETURN"
)

var validFlowTypes = []FlowType{
	FlowDispatch,
	FlowReturn,
}

// String implements fmt.Stringer.
func (f FlowType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FlowType.
func (f FlowType) IsValid() bool {
	for _, candidate := range validFlowTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFlowType converts raw input into a FlowType.
func ParseFlowType(value string) (FlowType, error) {
	for _, candidate := range validFlowTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid flow type %q", value)
}
