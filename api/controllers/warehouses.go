package controllers

import (
	"net/http"

	"github.com/ecomops/logiscan-backend/api/responses"
	"github.com/ecomops/logiscan-backend/api/validators"
	"github.com/ecomops/logiscan-backend/internal/warehouses"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/logger"
)

type warehouseCreateRequest struct {
	Name     string  `json:"name" validate:"required,min=1"`
	City     string  `json:"city" validate:"required,min=1"`
	Address  *string `json:"address,omitempty"`
	Timezone string  `json:"timezone,omitempty"`
}

// WarehouseCreate registers a scanning location for the caller's tenant.
func WarehouseCreate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body warehouseCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.Create(r.Context(), warehouses.CreateWarehouseInput{
			TenantID: tenantID,
			Name:     body.Name,
			City:     body.City,
			Address:  body.Address,
			Timezone: body.Timezone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, warehouses.FromModel(warehouse))
	}
}

// WarehouseGet returns one warehouse scoped to the caller's tenant.
func WarehouseGet(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouseID, err := uuidParam(r, "warehouseID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.Get(r.Context(), tenantID, warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, warehouses.FromModel(warehouse))
	}
}

// WarehouseList returns every warehouse of the caller's tenant.
func WarehouseList(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]*warehouses.WarehouseDTO, 0, len(list))
		for i := range list {
			payload = append(payload, warehouses.FromModel(&list[i]))
		}
		responses.WriteSuccess(w, payload)
	}
}
