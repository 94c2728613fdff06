package manifests

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// ManifestKey is the natural key identifying one manifest slot. At most one
// OPEN manifest exists per key.
type ManifestKey struct {
	TenantID     uuid.UUID
	WarehouseID  uuid.UUID
	ManifestDate time.Time
	Shift        enums.Shift
	Marketplace  enums.Marketplace
	Carrier      enums.Carrier
	FlowType     enums.FlowType
}

// StartManifestInput carries the fields needed to open or resume a manifest.
type StartManifestInput struct {
	TenantID     uuid.UUID
	WarehouseID  uuid.UUID
	ManifestDate time.Time
	Shift        enums.Shift
	Marketplace  enums.Marketplace
	Carrier      enums.Carrier
	FlowType     enums.FlowType
	CreatedBy    *uuid.UUID
}

// Key normalizes the input into its natural key. The manifest date is
// truncated to a UTC calendar date.
func (i StartManifestInput) Key() ManifestKey {
	return ManifestKey{
		TenantID:     i.TenantID,
		WarehouseID:  i.WarehouseID,
		ManifestDate: DateOnly(i.ManifestDate),
		Shift:        i.Shift,
		Marketplace:  i.Marketplace,
		Carrier:      i.Carrier,
		FlowType:     i.FlowType,
	}
}

// StartManifestResult reports the opened manifest and whether an existing OPEN
// manifest was resumed instead of a new one created.
type StartManifestResult struct {
	Manifest *models.Manifest
	Resumed  bool
}

// ManifestFilters narrows manifest listings.
type ManifestFilters struct {
	WarehouseID *uuid.UUID
	Status      *enums.ManifestStatus
	FlowType    *enums.FlowType
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ManifestList is one page of manifest results.
type ManifestList struct {
	Manifests  []models.Manifest
	NextCursor string
}

// ManifestDTO is the transport representation of a manifest.
type ManifestDTO struct {
	ID           uuid.UUID            `json:"id"`
	WarehouseID  uuid.UUID            `json:"warehouse_id"`
	ManifestDate string               `json:"manifest_date"`
	Shift        enums.Shift          `json:"shift"`
	Marketplace  enums.Marketplace    `json:"marketplace"`
	Carrier      enums.Carrier        `json:"carrier"`
	FlowType     enums.FlowType       `json:"flow_type"`
	Status       enums.ManifestStatus `json:"status"`
	TotalPackets int                  `json:"total_packets"`
	CreatedAt    time.Time            `json:"created_at"`
	ClosedAt     *time.Time           `json:"closed_at,omitempty"`
}

// FromModel maps a manifest row to its DTO.
func FromModel(m *models.Manifest) *ManifestDTO {
	if m == nil {
		return nil
	}
	return &ManifestDTO{
		ID:           m.ID,
		WarehouseID:  m.WarehouseID,
		ManifestDate: m.ManifestDate.Format("2006-01-02"),
		Shift:        m.Shift,
		Marketplace:  m.Marketplace,
		Carrier:      m.Carrier,
		FlowType:     m.FlowType,
		Status:       m.Status,
		TotalPackets: m.TotalPackets,
		CreatedAt:    m.CreatedAtUTC,
		ClosedAt:     m.ClosedAtUTC,
	}
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
