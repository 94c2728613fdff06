package warehouses

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
)

// WarehouseDTO is the transport representation of a warehouse.
type WarehouseDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Address   *string   `json:"address,omitempty"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModel maps a warehouse row to its DTO.
func FromModel(w *models.Warehouse) *WarehouseDTO {
	if w == nil {
		return nil
	}
	return &WarehouseDTO{
		ID:        w.ID,
		Name:      w.Name,
		City:      w.City,
		Address:   w.Address,
		Timezone:  w.Timezone,
		CreatedAt: w.CreatedAt,
	}
}
