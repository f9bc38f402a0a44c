package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/payflow-kr/backend-payflow/internal/common"
	"github.com/payflow-kr/backend-payflow/internal/ledger"
)

// Handler exposes the orchestration workflows and the ledger read surface
// over HTTP.
type Handler struct {
	Svc      *Service
	Ledger   Reader
	Validate *validator.Validate
	PageSize int
}

// Reader is the read-only slice of the ledger client used by list and lookup
// endpoints.
type Reader interface {
	List(ctx context.Context, page, size int) ([]ledger.PaymentRecord, error)
	Get(ctx context.Context, id int64) (ledger.PaymentRecord, error)
	GetByGatewayID(ctx context.Context, impUID string) (ledger.PaymentRecord, error)
	GetByOrderID(ctx context.Context, orderID int64) ([]ledger.PaymentRecord, error)
}

type submitReq struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,min=1"`
	OrderID   *int64 `json:"orderId"`
}

type submitResp struct {
	Status        Status               `json:"status"`
	Reference     string               `json:"reference"`
	TransactionID string               `json:"transactionId"`
	Payment       ledger.PaymentRecord `json:"payment"`
}

// Submit runs the full submission workflow for the caller's session.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "CHECKOUT_NOT_CONFIGURED", "checkout handler unavailable", nil)
		return
	}
	sessionID, ok := common.SessionID(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "session required", nil)
		return
	}
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "amount must be positive and name non-empty", nil)
			return
		}
	}

	result, err := h.Svc.Submit(r.Context(), sessionID, SubmitParams{
		Reference: req.Reference,
		Amount:    req.Amount,
		Name:      req.Name,
		OrderID:   req.OrderID,
	})
	if err != nil {
		common.RenderError(w, submitError(err))
		return
	}
	common.JSON(w, http.StatusOK, submitResp{
		Status:        result.Intent.Status,
		Reference:     result.Intent.Reference,
		TransactionID: result.TransactionID,
		Payment:       result.Record,
	})
}

// submitError translates workflow errors into the canonical response shape.
func submitError(err error) *common.AppError {
	var gwErr *GatewayError
	var intentErr *IntentError
	var confirmErr *ConfirmError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return common.NewAppError("UNAUTHORIZED", "credential invalid", http.StatusUnauthorized, err)
	case errors.Is(err, ErrSubmissionInFlight):
		return common.NewAppError("SUBMISSION_IN_FLIGHT", "a submission is already in progress", http.StatusConflict, err)
	case errors.Is(err, ErrReferenceUsed):
		return common.NewAppError("REFERENCE_USED", "transaction reference already used", http.StatusConflict, err)
	case errors.Is(err, ledger.ErrConfigUnavailable):
		return common.NewAppError("CONFIG_UNAVAILABLE", "gateway configuration unavailable", http.StatusServiceUnavailable, err)
	case errors.Is(err, ErrIdentifierMissing):
		return common.NewAppError("IDENTIFIER_MISSING", "checkout succeeded but no transaction identifier was returned", http.StatusBadGateway, err)
	case errors.As(err, &gwErr):
		appErr := common.NewAppError("GATEWAY_FAILURE", gwErr.Message, http.StatusUnprocessableEntity, err)
		appErr.Details = map[string]string{"gatewayCode": gwErr.Code}
		return appErr
	case errors.As(err, &intentErr):
		return common.NewAppError("INTENT_FAILED", intentErr.Message, http.StatusBadGateway, err)
	case errors.As(err, &confirmErr):
		return common.NewAppError("CONFIRM_FAILED", confirmErr.Message, http.StatusBadGateway, err)
	default:
		return common.NewAppError("BAD_REQUEST", err.Error(), http.StatusBadRequest, err)
	}
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func cancelError(err error) *common.AppError {
	var cancelErr *CancelError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return common.NewAppError("UNAUTHORIZED", "credential invalid", http.StatusUnauthorized, err)
	case errors.Is(err, ErrCancelInFlight):
		return common.NewAppError("CANCEL_IN_FLIGHT", "a cancellation is already in progress for this payment", http.StatusConflict, err)
	case errors.Is(err, ErrReasonRequired):
		return common.NewAppError("BAD_REQUEST", "cancellation reason is required", http.StatusBadRequest, err)
	case errors.As(err, &cancelErr):
		return common.NewAppError("CANCEL_FAILED", cancelErr.Message, http.StatusBadGateway, err)
	default:
		return common.NewAppError("BAD_REQUEST", err.Error(), http.StatusBadRequest, err)
	}
}

// Cancel reverses a settled payment identified by its gateway id.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "CHECKOUT_NOT_CONFIGURED", "checkout handler unavailable", nil)
		return
	}
	impUID := strings.TrimSpace(chi.URLParam(r, "impUid"))
	if impUID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "impUid is required", nil)
		return
	}
	var req cancelReq
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
			return
		}
	}

	outcome, err := h.Svc.Cancel(r.Context(), impUID, req.Reason)
	if err != nil {
		common.RenderError(w, cancelError(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"cancelled": outcome.Result,
		"payments":  outcome.Payments,
	})
}

// List returns one page of the caller's payments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, size := common.ParsePageSize(r, h.pageSize())
	records, err := h.Ledger.List(r.Context(), page, size)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, records)
}

// Get returns a payment by its internal ledger id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payment id", nil)
		return
	}
	record, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, record)
}

// GetByGatewayID returns a payment by its gateway-assigned identifier.
func (h *Handler) GetByGatewayID(w http.ResponseWriter, r *http.Request) {
	impUID := strings.TrimSpace(chi.URLParam(r, "impUid"))
	if impUID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "impUid is required", nil)
		return
	}
	record, err := h.Ledger.GetByGatewayID(r.Context(), impUID)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, record)
}

// GetByOrderID returns the payments linked to an external order id.
func (h *Handler) GetByOrderID(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	records, err := h.Ledger.GetByOrderID(r.Context(), orderID)
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, records)
}

func (h *Handler) writeReadError(w http.ResponseWriter, err error) {
	var apiErr *ledger.APIError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		common.RenderError(w, common.NewAppError("UNAUTHORIZED", "credential invalid", http.StatusUnauthorized, err))
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		common.RenderError(w, common.NewAppError("LEDGER_ERROR", ledger.UserMessage(err), status, err))
	default:
		common.RenderError(w, common.NewAppError("LEDGER_UNREACHABLE", common.GenericTransportMessage, http.StatusBadGateway, err))
	}
}

func (h *Handler) pageSize() int {
	if h != nil && h.PageSize > 0 {
		return h.PageSize
	}
	return 20
}
