package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/api/middleware"
	"github.com/ecomops/logiscan-backend/api/responses"
	"github.com/ecomops/logiscan-backend/api/validators"
	"github.com/ecomops/logiscan-backend/internal/manifests"
	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/logger"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

const manifestDateLayout = "2006-01-02"

type manifestStartRequest struct {
	WarehouseID  string `json:"warehouse_id" validate:"required,uuid"`
	ManifestDate string `json:"manifest_date,omitempty"`
	Shift        string `json:"shift" validate:"required"`
	Marketplace  string `json:"marketplace" validate:"required"`
	Carrier      string `json:"carrier" validate:"required"`
	FlowType     string `json:"flow_type" validate:"required"`
}

type manifestStartResponse struct {
	Manifest *manifests.ManifestDTO `json:"manifest"`
	Resumed  bool                   `json:"resumed"`
}

// ManifestStart opens a manifest for the requested slot, resuming the OPEN one
// when it already exists.
func ManifestStart(svc manifests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "manifest service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body manifestStartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouseID, err := uuid.Parse(body.WarehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id"))
			return
		}

		manifestDate := time.Now().UTC()
		if body.ManifestDate != "" {
			manifestDate, err = time.Parse(manifestDateLayout, body.ManifestDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "manifest date must be YYYY-MM-DD"))
				return
			}
		}

		input := manifests.StartManifestInput{
			TenantID:     tenantID,
			WarehouseID:  warehouseID,
			ManifestDate: manifestDate,
			Shift:        enums.Shift(body.Shift),
			Marketplace:  enums.Marketplace(body.Marketplace),
			Carrier:      enums.Carrier(body.Carrier),
			FlowType:     enums.FlowType(body.FlowType),
		}
		if userRaw := middleware.UserIDFromContext(r.Context()); userRaw != "" {
			if userID, err := uuid.Parse(userRaw); err == nil {
				input.CreatedBy = &userID
			}
		}

		result, err := svc.Start(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Resumed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, manifestStartResponse{
			Manifest: manifests.FromModel(result.Manifest),
			Resumed:  result.Resumed,
		})
	}
}

// ManifestClose transitions an OPEN manifest to CLOSED and freezes its totals.
func ManifestClose(svc manifests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "manifest service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manifestID, err := uuidParam(r, "manifestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manifest, err := svc.Close(r.Context(), tenantID, manifestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, manifests.FromModel(manifest))
	}
}

// ManifestGet returns a single manifest scoped to the caller's tenant.
func ManifestGet(svc manifests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "manifest service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manifestID, err := uuidParam(r, "manifestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manifest, err := svc.Get(r.Context(), tenantID, manifestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, manifests.FromModel(manifest))
	}
}

type manifestListResponse struct {
	Manifests  []*manifests.ManifestDTO `json:"manifests"`
	NextCursor string                   `json:"next_cursor,omitempty"`
}

// ManifestList pages through the tenant's manifests, newest first.
func ManifestList(svc manifests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "manifest service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := manifestFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), tenantID, paginationFromQuery(r), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := manifestListResponse{
			Manifests:  make([]*manifests.ManifestDTO, 0, len(list.Manifests)),
			NextCursor: list.NextCursor,
		}
		for i := range list.Manifests {
			payload.Manifests = append(payload.Manifests, manifests.FromModel(&list.Manifests[i]))
		}
		responses.WriteSuccess(w, payload)
	}
}

// ManifestExportCSV streams every scan of one manifest as a CSV attachment.
func ManifestExportCSV(manifestSvc manifests.Service, scanSvc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manifestSvc == nil || scanSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manifestID, err := uuidParam(r, "manifestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manifest, err := manifestSvc.Get(r.Context(), tenantID, manifestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := scanSvc.ExportByManifest(r.Context(), tenantID, manifestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("manifest_%s_%s.csv",
			manifest.ManifestDate.Format(manifestDateLayout), manifest.ID)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)

		cw := csv.NewWriter(w)
		record := []string{
			"scan_event_id", "barcode_value", "barcode_type", "flow_type",
			"marketplace", "carrier", "scanned_at_utc", "device_id",
			"operator_id", "extracted_order_id", "extracted_awb", "sync_status",
		}
		_ = cw.Write(record)
		for i := range events {
			e := &events[i]
			record = []string{
				e.ID.String(),
				e.BarcodeValue,
				string(e.BarcodeType),
				string(e.FlowType),
				string(e.Marketplace),
				string(e.Carrier),
				e.ScannedAtUTC.UTC().Format(time.RFC3339),
				derefString(e.DeviceID),
				uuidPtrString(e.OperatorID),
				derefString(e.ExtractedOrderID),
				derefString(e.ExtractedAWB),
				string(e.SyncStatus),
			}
			if err := cw.Write(record); err != nil {
				if logg != nil {
					logg.Error(r.Context(), "csv export write failed", err)
				}
				return
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil && logg != nil {
			logg.Error(r.Context(), "csv export flush failed", err)
		}
	}
}

func manifestFiltersFromQuery(r *http.Request) (manifests.ManifestFilters, error) {
	var filters manifests.ManifestFilters
	q := r.URL.Query()

	if raw := q.Get("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id")
		}
		filters.WarehouseID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := enums.ManifestStatus(raw)
		if !status.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid manifest status")
		}
		filters.Status = &status
	}
	if raw := q.Get("flow_type"); raw != "" {
		flow := enums.FlowType(raw)
		if !flow.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid flow type")
		}
		filters.FlowType = &flow
	}
	if raw := q.Get("date_from"); raw != "" {
		from, err := time.Parse(manifestDateLayout, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_from must be YYYY-MM-DD")
		}
		filters.DateFrom = &from
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := time.Parse(manifestDateLayout, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_to must be YYYY-MM-DD")
		}
		filters.DateTo = &to
	}
	return filters, nil
}

func paginationFromQuery(r *http.Request) pagination.Params {
	params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	return params
}

func tenantFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.TenantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant id")
	}
	return tenantID, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uuidPtrString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
