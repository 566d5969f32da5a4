package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
)

// Query parameters carrying a selection. Each may repeat.
const (
	paramCity         = "city"
	paramCustomerType = "customer_type"
	paramGender       = "gender"
)

var selectionValidator = validator.New()

type APIHandlers struct {
	dataset *services.Dataset
	logger  *slog.Logger
}

func NewAPIHandlers(dataset *services.Dataset, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dataset: dataset,
		logger:  logger,
	}
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}

	headers := map[string]string{
		"Cache-Control": "public, max-age=300",
	}

	errors.WriteSuccessWithHeaders(w, r, h.dataset.Options(), headers)
}

func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	table, ok := h.filtered(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, r, h.dataset.Page(table))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	table, ok := h.filtered(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, r, h.dataset.Summary(table))
}

func (h *APIHandlers) HandleHourlySales(w http.ResponseWriter, r *http.Request) {
	table, ok := h.filtered(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, r, h.dataset.HourlySales(table))
}

func (h *APIHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.dataset.Status())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.dataset.Err() != nil {
		status = "degraded"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.dataset.Stats())
}

// available writes DATA_UNAVAILABLE and returns false when the load failed.
func (h *APIHandlers) available(w http.ResponseWriter, r *http.Request) bool {
	loadErr := h.dataset.Err()
	if loadErr == nil {
		return true
	}
	errors.WriteError(w, r, h.logger, errors.DataUnavailable(loadErr, loadErr.Message()))
	return false
}

func (h *APIHandlers) filtered(w http.ResponseWriter, r *http.Request) (*sales.Table, bool) {
	if !h.available(w, r) {
		return nil, false
	}

	sel := selectionFromQuery(r.URL.Query(), h.dataset.DefaultSelection())
	if err := selectionValidator.Struct(sel); err != nil {
		errors.WriteError(w, r, h.logger, errors.ValidationWrap(err, "Invalid filter selection"))
		return nil, false
	}

	return h.dataset.Filter(r.Context(), sel), true
}

// selectionFromQuery reads the three category sets from q. A parameter that
// is absent selects every value in defaults. An empty value only counts when
// the column has blank cells, so "?city=" alone selects nothing otherwise.
func selectionFromQuery(q url.Values, defaults sales.Selection) sales.Selection {
	return sales.Selection{
		Cities:        queryValues(q, paramCity, defaults.Cities),
		CustomerTypes: queryValues(q, paramCustomerType, defaults.CustomerTypes),
		Genders:       queryValues(q, paramGender, defaults.Genders),
	}
}

func queryValues(q url.Values, key string, defaults []string) []string {
	raw, ok := q[key]
	if !ok {
		return defaults
	}

	keepBlank := slices.Contains(defaults, "")
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" || keepBlank {
			values = append(values, v)
		}
	}
	return values
}
