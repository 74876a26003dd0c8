package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "macrostudy/internal/errors"
)

// RunHandler triggers analysis runs
type RunHandler struct {
	runner       AnalysisRunner
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRunHandler creates a run handler
func NewRunHandler(runner AnalysisRunner, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RunHandler {
	return &RunHandler{
		runner:       runner,
		logger:       logger.With(slog.String("component", "run_handler")),
		errorHandler: errorHandler,
	}
}

// CreateRun handles POST /api/v1/runs. The run is synchronous and answers
// with the metadata of the new report.
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.RunFromFiles(r.Context())
	if err != nil {
		var appErr *apierrors.AppError
		if !errors.As(err, &appErr) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = apierrors.ErrRunFailed(err)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "analysis run completed",
		slog.String("run_id", report.RunID),
		slog.Int("panel_rows", len(report.Result.Panel)))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newReportDTO(report))
}
