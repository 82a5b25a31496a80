package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"SignalBatch/internal/domain/models"
	domrepo "SignalBatch/internal/domain/repository"
	"SignalBatch/internal/signal"
	"SignalBatch/internal/usecase"
	xhttp "SignalBatch/pkg/http"
	xlogger "SignalBatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JobsHandler exposes the batch-analysis API over Echo.
type JobsHandler struct {
	logger  *xlogger.Logger
	orch    *usecase.Orchestrator
	history domrepo.VerdictHistory // optional
}

func NewJobsHandler(logger *xlogger.Logger, orch *usecase.Orchestrator, history domrepo.VerdictHistory) *JobsHandler {
	return &JobsHandler{logger: logger, orch: orch, history: history}
}

func (h *JobsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/jobs", h.Submit)
	g.GET("/jobs/:id", h.Status)
	g.POST("/jobs/:id/cancel", h.Cancel)
	g.GET("/indicators", h.Indicators)
	g.GET("/verdicts", h.Verdicts)
}

// Submit accepts a batch and returns immediately with the job id. A
// resubmission of an in-flight ticker set folds into the running job.
func (h *JobsHandler) Submit(c echo.Context) error {
	req := &models.SubmitJobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.orch.Submit(c.Request().Context(), req)
	if err != nil {
		return h.submitError(c, err)
	}

	if res.IsDuplicate {
		return xhttp.SuccessResponse(c, res)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, res)
}

func (h *JobsHandler) submitError(c echo.Context, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return xhttp.BadRequestResponse(c,
			xhttp.BadRequestError(verr.Error()).WithParam("field", verr.Field))
	}
	if errors.Is(err, models.ErrUnknownIndicator) {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}

	var cerr *models.CreationError
	if errors.As(err, &cerr) {
		h.logger.Error("job creation exhausted retries",
			xlogger.Int("attempts", cerr.Attempts),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_STORE_UNAVAILABLE", "", "job store unavailable, retry later", http.StatusServiceUnavailable).WithError(err))
	}

	h.logger.Error("job submit error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

func (h *JobsHandler) Status(c echo.Context) error {
	res, err := h.orch.GetStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("job %s not found", c.Param("id")))
		}
		h.logger.Error("job status error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// Large batches can carry long error logs; cap what one response
	// returns while keeping the full count.
	maxErrors := xhttp.ParseIntDefault(c.QueryParam("max_errors"), 20)
	if maxErrors >= 0 && len(res.Errors) > maxErrors {
		res.Errors = res.Errors[:maxErrors]
	}
	return xhttp.SuccessResponse(c, res)
}

// Verdicts serves stored verdict history for one symbol. Available only
// when a history backend is configured.
func (h *JobsHandler) Verdicts(c echo.Context) error {
	if h.history == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("verdict history is not configured"))
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("symbol is required"))
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, 0, -7))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)

	rows, err := h.history.Query(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("verdict history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *JobsHandler) Cancel(c echo.Context) error {
	res, err := h.orch.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("job %s not found", c.Param("id")))
		}
		h.logger.Error("job cancel error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Indicators lists registered indicators and known strategy profiles so
// clients can build valid submissions.
func (h *JobsHandler) Indicators(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"indicators": h.orch.Indicators(),
		"strategies": signal.StrategyIDs(),
	})
}
