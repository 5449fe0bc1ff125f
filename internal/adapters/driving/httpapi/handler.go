package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
	"github.com/custodia-labs/coupon/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Services holds the driving ports the API exposes.
type Services struct {
	Coupons driving.CouponService
	Issuer  driving.CouponIssuer
	AsyncV1 driving.AsyncCouponIssuer
	AsyncV2 driving.AsyncCouponIssuer
}

// Handler serves the coupon API.
type Handler struct {
	svc Services
}

// NewHandler creates a handler for svc.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the API routes.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/issue", h.issueWith(h.svc.Issuer.Issue))
	mux.HandleFunc("POST /v1/issue-async", h.issueWith(h.svc.AsyncV1.Issue))
	mux.HandleFunc("POST /v2/issue-async", h.issueWith(h.svc.AsyncV2.Issue))
	mux.HandleFunc("POST /v1/coupons", h.createCoupon)
	mux.HandleFunc("GET /v1/coupons", h.listCoupons)
	mux.HandleFunc("GET /v1/coupons/{id}", h.getCoupon)
	mux.HandleFunc("GET /healthz", h.health)
	return mux
}

type issueFunc func(ctx context.Context, couponID, userID int64) error

// issueWith adapts one of the issue paths to an HTTP handler.
func (h *Handler) issueWith(issue issueFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CouponIssueRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, failure(err.Error()))
			return
		}
		// An unknown couponId is a business failure reported by the issue
		// path. A request without a user cannot be issued to anyone.
		if req.UserID <= 0 {
			writeJSON(w, http.StatusBadRequest, failure("userId must be positive"))
			return
		}

		err := issue(r.Context(), req.CouponID, req.UserID)
		if err == nil {
			writeJSON(w, http.StatusOK, success())
			return
		}

		var issueErr *domain.CouponIssueError
		if errors.As(err, &issueErr) {
			logger.Debug("%s %s rejected: %v", r.Method, r.URL.Path, err)
			writeJSON(w, http.StatusOK, failure(issueErr.Message))
			return
		}
		logger.Error("%s %s failed for %d/%d: %v", r.Method, r.URL.Path, req.CouponID, req.UserID, err)
		writeJSON(w, http.StatusInternalServerError, failure("internal error"))
	}
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	coupon, err := h.svc.Coupons.Create(r.Context(), req.toDomain())
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, NewCouponResponse(coupon))
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.Coupons.List(r.Context())
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	out := make([]CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, NewCouponResponse(&coupons[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid coupon id"})
		return
	}
	coupon, err := h.svc.Coupons.Get(r.Context(), id)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewCouponResponse(coupon))
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a single JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// writeAdminError maps service errors on the admin endpoints to status codes.
func writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	code, isIssueErr := domain.IssueErrorCode(err)
	switch {
	case isIssueErr && code == domain.ErrorCodeCouponNotExist:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response: %v", err)
	}
}
