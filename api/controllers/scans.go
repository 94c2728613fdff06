package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomops/logiscan-backend/api/middleware"
	"github.com/ecomops/logiscan-backend/api/responses"
	"github.com/ecomops/logiscan-backend/api/validators"
	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/logger"
)

type bulkScanItem struct {
	ManifestID       string           `json:"manifest_id" validate:"required,uuid"`
	BarcodeValue     string           `json:"barcode_value" validate:"required"`
	BarcodeType      *string          `json:"barcode_type,omitempty"`
	OCRRawText       *string          `json:"ocr_raw_text,omitempty"`
	ExtractedOrderID *string          `json:"extracted_order_id,omitempty"`
	ExtractedAWB     *string          `json:"extracted_awb,omitempty"`
	ScannedAt        *time.Time       `json:"scanned_at,omitempty"`
	DeviceID         *string          `json:"device_id,omitempty"`
	ConfidenceScore  *decimal.Decimal `json:"confidence_score,omitempty"`
}

type bulkIngestRequest struct {
	Items []bulkScanItem `json:"items" validate:"required,min=1,dive"`
}

// ScanBulkIngest accepts a batch of scans and reports per-item outcomes.
// Duplicate submissions are safe: replays get duplicate outcomes, not errors.
func ScanBulkIngest(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		tenantID, operator, err := scanIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkIngestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]scans.ScanItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			manifestID, err := uuid.Parse(item.ManifestID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manifest id"))
				return
			}
			input := scans.ScanItemInput{
				ManifestID:       manifestID,
				BarcodeValue:     item.BarcodeValue,
				OCRRawText:       item.OCRRawText,
				ExtractedOrderID: item.ExtractedOrderID,
				ExtractedAWB:     item.ExtractedAWB,
				ScannedAtLocal:   item.ScannedAt,
				DeviceID:         item.DeviceID,
				ConfidenceScore:  item.ConfidenceScore,
			}
			if item.BarcodeType != nil {
				barcodeType := enums.BarcodeType(*item.BarcodeType)
				input.BarcodeType = &barcodeType
			}
			items = append(items, input)
		}

		result, err := svc.BulkIngest(r.Context(), scans.BulkIngestInput{
			TenantID: tenantID,
			Operator: operator,
			Items:    items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type batchScanRequest struct {
	Barcodes    []string `json:"barcodes" validate:"required,min=1"`
	WarehouseID *string  `json:"warehouse_id,omitempty" validate:"omitempty,uuid"`
	Shift       *string  `json:"shift,omitempty"`
	Marketplace *string  `json:"marketplace,omitempty"`
	Carrier     *string  `json:"carrier,omitempty"`
	FlowType    *string  `json:"flow_type,omitempty"`
}

// ScanBatch ingests raw barcodes into the operator's open manifest for the
// day, opening one under default classification when absent.
func ScanBatch(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		tenantID, operator, err := scanIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body batchScanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := scans.BatchScanInput{
			TenantID: tenantID,
			Operator: operator,
			Barcodes: body.Barcodes,
		}
		if body.WarehouseID != nil {
			warehouseID, err := uuid.Parse(*body.WarehouseID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id"))
				return
			}
			input.WarehouseID = &warehouseID
		}
		if body.Shift != nil {
			shift := enums.Shift(*body.Shift)
			input.Shift = &shift
		}
		if body.Marketplace != nil {
			marketplace := enums.Marketplace(*body.Marketplace)
			input.Marketplace = &marketplace
		}
		if body.Carrier != nil {
			carrier := enums.Carrier(*body.Carrier)
			input.Carrier = &carrier
		}
		if body.FlowType != nil {
			flow := enums.FlowType(*body.FlowType)
			input.FlowType = &flow
		}

		result, err := svc.BatchScan(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ScanBatchStatus reports the durable sync state of one recorded batch.
func ScanBatchStatus(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batchID, err := uuidParam(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.BatchStatus(r.Context(), tenantID, batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

type scanEventListResponse struct {
	Events     []*scans.ScanEventDTO `json:"events"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// ScanEventList pages through the scans of one manifest, newest first.
func ScanEventList(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := r.URL.Query().Get("manifest_id")
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "manifest_id query parameter required"))
			return
		}
		manifestID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid manifest id"))
			return
		}

		list, err := svc.ListByManifest(r.Context(), tenantID, manifestID, paginationFromQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, scanEventPage(list))
	}
}

// ScanEventListMine pages through the authenticated operator's own scans.
func ScanEventListMine(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		tenantID, operator, err := scanIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByOperator(r.Context(), tenantID, operator.UserID, paginationFromQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, scanEventPage(list))
	}
}

// ScanEventGet returns one scan event scoped to the caller's tenant.
func ScanEventGet(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := uuidParam(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Get(r.Context(), tenantID, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, scans.FromModel(event))
	}
}

func scanEventPage(list *scans.ScanEventList) scanEventListResponse {
	payload := scanEventListResponse{
		Events:     make([]*scans.ScanEventDTO, 0, len(list.Events)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Events {
		payload.Events = append(payload.Events, scans.FromModel(&list.Events[i]))
	}
	return payload
}

func scanIdentity(r *http.Request) (uuid.UUID, scans.OperatorContext, error) {
	tenantID, err := tenantFromContext(r)
	if err != nil {
		return uuid.Nil, scans.OperatorContext{}, err
	}

	userRaw := middleware.UserIDFromContext(r.Context())
	if userRaw == "" {
		return uuid.Nil, scans.OperatorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing")
	}
	userID, err := uuid.Parse(userRaw)
	if err != nil {
		return uuid.Nil, scans.OperatorContext{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	operator := scans.OperatorContext{
		UserID: userID,
		Email:  middleware.UserEmailFromContext(r.Context()),
	}
	if warehouseRaw := middleware.WarehouseIDFromContext(r.Context()); warehouseRaw != "" {
		if warehouseID, err := uuid.Parse(warehouseRaw); err == nil {
			operator.WarehouseID = &warehouseID
		}
	}
	return tenantID, operator, nil
}
