package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"cotpulse/internal/cot"
	apierrors "cotpulse/internal/errors"
	"cotpulse/internal/percentile"
	v1 "cotpulse/pkg/contracts/api/v1"
)

// COTHandler serves the positioning query endpoints with RFC 7807 errors
// for malformed requests. Upstream and data failures never surface as
// errors here: the service folds them into ok=false envelopes.
type COTHandler struct {
	service      COTServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewCOTHandler creates a new COT handler.
func NewCOTHandler(service COTServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *COTHandler {
	return &COTHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "cot_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the COT routes with proper Chi patterns.
func (h *COTHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.QueryBatch)
	r.Get("/status", h.GetStatus)
	r.Post("/refresh", h.Refresh)

	r.Route("/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Get("/", h.QuerySingle)
	})

	return r
}

// SymbolCtx middleware validates the symbol parameter shape. Whether the
// symbol is actually supported is decided by the service against the
// instrument table.
func (h *COTHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if symbol == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "Symbol is required"))
			return
		}
		if len(symbol) < 3 || len(symbol) > 10 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "Invalid symbol format"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// QuerySingle handles GET /api/cot/{symbol}?class=...&window=...
func (h *COTHandler) QuerySingle(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	req := v1.SingleQueryRequest{
		Symbol:      symbol,
		TraderClass: queryDefault(r, "class", string(cot.ClassNonCommercial)),
		Window:      queryInt(r, "window", int(percentile.Window52W)),
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	class, err := cot.ParseTraderClass(req.TraderClass)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("class", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "single query",
		slog.String("symbol", symbol),
		slog.String("class", string(class)),
		slog.Int("window", req.Window),
	)

	env := h.service.QuerySingle(r.Context(), symbol, class, percentile.Window(req.Window))
	render.JSON(w, r, env)
}

// QueryBatch handles GET /api/cot?class=...&window=...
func (h *COTHandler) QueryBatch(w http.ResponseWriter, r *http.Request) {
	req := v1.BatchQueryRequest{
		TraderClass: queryDefault(r, "class", string(cot.ClassNonCommercial)),
		Window:      queryInt(r, "window", int(percentile.Window52W)),
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	class, err := cot.ParseTraderClass(req.TraderClass)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("class", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "batch query",
		slog.String("class", string(class)),
		slog.Int("window", req.Window),
	)

	env := h.service.QueryBatch(r.Context(), class, percentile.Window(req.Window))
	render.JSON(w, r, env)
}

// Refresh handles POST /api/cot/refresh
func (h *COTHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "cache refresh requested")
	render.JSON(w, r, h.service.Refresh())
}

// GetStatus handles GET /api/cot/status
func (h *COTHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1 // fails oneof validation with a proper 400
	}
	return n
}
