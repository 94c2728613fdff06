package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/api/responses"
	"github.com/ecomops/logiscan-backend/api/validators"
	"github.com/ecomops/logiscan-backend/internal/provisioning"
	"github.com/ecomops/logiscan-backend/internal/users"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/logger"
)

type tenantProvisionRequest struct {
	TenantName    string  `json:"tenant_name" validate:"required,min=1"`
	Plan          *string `json:"plan,omitempty"`
	WarehouseName string  `json:"warehouse_name" validate:"required,min=1"`
	WarehouseCity string  `json:"warehouse_city" validate:"required,min=1"`
	AdminEmail    string  `json:"admin_email" validate:"required,email"`
	AdminPassword string  `json:"admin_password" validate:"required,min=8"`
	AdminName     *string `json:"admin_name,omitempty"`
}

type tenantProvisionResponse struct {
	TenantID    uuid.UUID      `json:"tenant_id"`
	WarehouseID *uuid.UUID     `json:"warehouse_id,omitempty"`
	AdminUser   *users.UserDTO `json:"admin_user,omitempty"`
	Provisioned bool           `json:"provisioned"`
}

// TenantProvision bootstraps a tenant with its first warehouse and admin user.
// Only reachable outside prod; production tenants are provisioned out of band.
func TenantProvision(svc provisioning.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg == nil || cfg.App.IsProd() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant provisioning disabled"))
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provisioning service unavailable"))
			return
		}

		var body tenantProvisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := provisioning.EnsureTenantInput{
			TenantName:    body.TenantName,
			WarehouseName: body.WarehouseName,
			WarehouseCity: body.WarehouseCity,
			AdminEmail:    body.AdminEmail,
			AdminPassword: body.AdminPassword,
			AdminFullName: body.AdminName,
		}
		if body.Plan != nil {
			input.Plan = enums.TenantPlan(*body.Plan)
		}

		result, err := svc.Ensure(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := tenantProvisionResponse{
			TenantID:    result.Tenant.ID,
			AdminUser:   users.FromModel(result.AdminUser),
			Provisioned: result.Provisioned,
		}
		if result.Warehouse != nil {
			payload.WarehouseID = &result.Warehouse.ID
		}

		status := http.StatusCreated
		if !result.Provisioned {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}
