package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/platform/httpx"
)

var errorMappings = []httpx.ErrorMapping{
	{Target: ledger.ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Target: ledger.ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Target: ledger.ErrOverpayment, Status: http.StatusConflict, Title: "Overpayment"},
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	detail := h.facade.UserMessage(err)
	if ledger.IsRetryable(err) {
		h.logger.Warn("retryable ledger failure", slog.String("request_id", middleware.GetReqID(r.Context())), slog.Any("error", err))
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, r, http.StatusServiceUnavailable, "Service Unavailable", detail)
		return
	}
	if !errors.Is(err, ledger.ErrValidation) && !errors.Is(err, ledger.ErrNotFound) && !errors.Is(err, ledger.ErrOverpayment) {
		h.logger.Error("ledger request failed",
			slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())), slog.Any("error", err))
	}
	httpx.RespondError(w, r, err, detail, errorMappings...)
}
