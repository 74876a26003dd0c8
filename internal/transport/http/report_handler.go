package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "macrostudy/internal/errors"
	"macrostudy/internal/services"
)

// ReportHandler serves the tables of the latest analysis report
type ReportHandler struct {
	runner       AnalysisRunner
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler
func NewReportHandler(runner AnalysisRunner, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		runner:       runner,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Register adds the read-only report routes to r
func (h *ReportHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		h.routes(r)
	})
}

func (h *ReportHandler) routes(r chi.Router) {
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/report", h.GetReport)
	r.Get("/panel", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return panelDTOs(rep.Result.Panel, f)
	}))
	r.Get("/summary", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return summaryDTOs(rep.Result.Summary, f)
	}))
	r.Get("/drawdowns", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return drawdownDTOs(rep.Result.Drawdowns, f)
	}))
	r.Get("/drawdowns/summary", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return drawdownSummaryDTOs(rep.Result.DrawdownSummary, f)
	}))
	r.Get("/volatility", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return volShiftDTOs(rep.Result.VolShift, f)
	}))
	r.Get("/volatility/summary", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return volSummaryDTOs(rep.Result.VolSummary, f)
	}))
	r.Get("/rolling", h.table(func(rep *services.Report, f ReportFilter) interface{} {
		return rollingDTOs(rep.Rolling, f)
	}))
}

// GetReport handles GET /api/v1/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runner.Latest()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoReport)
		return
	}
	render.JSON(w, r, newReportDTO(report))
}

// table builds a handler for one filtered table of the latest report
func (h *ReportHandler) table(project func(*services.Report, ReportFilter) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		report, ok := h.runner.Latest()
		if !ok {
			h.errorHandler.HandleError(w, r, apierrors.ErrNoReport)
			return
		}

		data := project(report, filter)
		h.logger.DebugContext(r.Context(), "serving table",
			slog.String("path", r.URL.Path),
			slog.String("run_id", report.RunID),
			slog.String("event_type", filter.EventType),
			slog.String("ticker", filter.Ticker))

		render.JSON(w, r, ListResponse{RunID: report.RunID, Count: rowCount(data), Data: data})
	}
}

func rowCount(data interface{}) int {
	switch d := data.(type) {
	case []PanelRowDTO:
		return len(d)
	case []SummaryRowDTO:
		return len(d)
	case []DrawdownDTO:
		return len(d)
	case []DrawdownSummaryDTO:
		return len(d)
	case []VolShiftDTO:
		return len(d)
	case []VolSummaryDTO:
		return len(d)
	case []RollingDTO:
		return len(d)
	}
	return 0
}
