package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dataset *services.Dataset
	logger  *slog.Logger
}

func NewSSEHandlers(dataset *services.Dataset, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dataset: dataset,
		logger:  logger,
	}
}

// selectionFromSignals maps the sidebar signals onto a selection. A signal
// the client did not send selects every value; an empty list selects none.
func selectionFromSignals(s templates.Signals, defaults sales.Selection) sales.Selection {
	sel := sales.Selection{
		Cities:        s.Cities,
		CustomerTypes: s.CustomerTypes,
		Genders:       s.Genders,
	}
	if sel.Cities == nil {
		sel.Cities = defaults.Cities
	}
	if sel.CustomerTypes == nil {
		sel.CustomerTypes = defaults.CustomerTypes
	}
	if sel.Genders == nil {
		sel.Genders = defaults.Genders
	}
	return sel
}

// HandleFilter re-renders the table, summary and hourly breakdown for the
// selection carried in the request's signals.
func (h *SSEHandlers) HandleFilter(w http.ResponseWriter, r *http.Request) {
	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "Invalid filter signals"))
		return
	}

	sel := selectionFromSignals(signals, h.dataset.DefaultSelection())
	if err := selectionValidator.Struct(sel); err != nil {
		errors.WriteError(w, r, h.logger, errors.ValidationWrap(err, "Invalid filter selection"))
		return
	}

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()

	if loadErr := h.dataset.Err(); loadErr != nil {
		html, err := templates.Render(ctx, templates.EmptyState(loadErr.Message()))
		if err != nil {
			h.logger.ErrorContext(ctx, "render fragment", "fragment", "empty", "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.WarnContext(ctx, "patch elements", "fragment", "empty", "error", err)
		}
		return
	}

	table := h.dataset.Filter(ctx, sel)
	hourly := h.dataset.HourlySales(table)

	fragments := []struct {
		name   string
		render func() (string, error)
	}{
		{"table", func() (string, error) { return templates.Render(ctx, templates.TransactionTable(table)) }},
		{"summary", func() (string, error) { return templates.Render(ctx, templates.SummaryPanel(h.dataset.Summary(table))) }},
		{"hourly", func() (string, error) { return templates.Render(ctx, templates.HourlyTable(hourly)) }},
	}
	for _, f := range fragments {
		html, err := f.render()
		if err != nil {
			h.logger.ErrorContext(ctx, "render fragment", "fragment", f.name, "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.WarnContext(ctx, "patch elements", "fragment", f.name, "error", err)
			return
		}
	}

	hourlyData, err := json.Marshal(map[string]any{
		"hourlyData": hourly,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal hourly data", "error", err)
		return
	}
	sse.PatchSignals(hourlyData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
