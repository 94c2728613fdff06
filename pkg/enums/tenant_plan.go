package enums

import "fmt"

// TenantPlan is the subscription tier of a tenant.
type TenantPlan string

const (
	PlanFree       TenantPlan = "FREE"
	PlanBasic      TenantPlan = "BASIC"
	PlanPro        TenantPlan = "PRO"
	PlanEnterprise TenantPlan = "ENTERPRISE"
)

var validTenantPlans = []TenantPlan{
	PlanFree,
	PlanBasic,
	PlanPro,
	PlanEnterprise,
}

// String implements fmt.Stringer.
func (p TenantPlan) String() string {
	return string(p)
}

// IsValid reports whether the value is a known TenantPlan.
func (p TenantPlan) IsValid() bool {
	for _, candidate := range validTenantPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTenantPlan converts raw input into a TenantPlan.
func ParseTenantPlan(value string) (TenantPlan, error) {
	for _, candidate := range validTenantPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tenant plan %q", value)
}
