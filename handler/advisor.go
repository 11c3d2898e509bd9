package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/AnnaCarter465/tax-advisor/advisor"
	"github.com/AnnaCarter465/tax-advisor/form"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/AnnaCarter465/tax-advisor/view"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const HeaderSessionID = "X-Session-ID"

type ViolationResponse struct {
	Message    string          `json:"message"`
	Violations []tax.Violation `json:"violations"`
}

type SubmitResponse struct {
	advisor.Outcome
	SelectedPlan int          `json:"selected_plan"`
	Summary      []view.Card  `json:"summary"`
	Rows         []view.Row   `json:"rows"`
	Slices       []view.Slice `json:"slices"`
}

type RulesetsResponse struct {
	Active    string           `json:"active"`
	Available []string         `json:"available"`
	Ruleset   *ruleset.Ruleset `json:"ruleset"`
}

type AdvisorHandler struct {
	vl       *validator.Validate
	advisor  *advisor.Advisor
	sessions *advisor.Sessions
	logger   *zap.Logger
}

func NewAdvisorHandler(vl *validator.Validate, a *advisor.Advisor, logger *zap.Logger) *AdvisorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AdvisorHandler{
		vl:       vl,
		advisor:  a,
		sessions: advisor.NewSessions(a),
		logger:   logger,
	}
}

func (h *AdvisorHandler) decode(c echo.Context) (form.FormState, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return form.FormState{}, err
	}

	f, err := form.Decode(body)
	if err != nil {
		return form.FormState{}, err
	}

	if err := h.vl.Struct(f); err != nil {
		return form.FormState{}, err
	}

	return f, nil
}

// Check aggregates deductions and runs the threshold pre-check. It never contacts the
// calculation service.
func (h *AdvisorHandler) Check(c echo.Context) error {
	f, err := h.decode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	out, err := h.advisor.Prepare(f)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// Submit runs the full flow. Requests sharing an X-Session-ID supersede each other: the older
// one is answered with 409.
func (h *AdvisorHandler) Submit(c echo.Context) error {
	f, err := h.decode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	ctx := c.Request().Context()

	var out advisor.Outcome
	if id := c.Request().Header.Get(HeaderSessionID); id != "" {
		out, err = h.sessions.Submit(ctx, id, f)
	} else {
		out, err = h.advisor.Evaluate(ctx, f)
	}
	if err != nil {
		return h.fail(c, err)
	}

	result := view.New(out.Result, out.Plans, out.NoTaxRequired)
	if plan, err := strconv.Atoi(c.QueryParam("plan")); err == nil {
		// out of range keeps the first plan
		_ = result.Select(plan)
	}

	return c.JSON(http.StatusOK, SubmitResponse{
		Outcome:      out,
		SelectedPlan: result.Selected(),
		Summary:      result.Summary(),
		Rows:         result.Rows(),
		Slices:       result.Slices(),
	})
}

func (h *AdvisorHandler) Rulesets(c echo.Context) error {
	rules := h.advisor.Ruleset()

	return c.JSON(http.StatusOK, RulesetsResponse{
		Active:    rules.Name,
		Available: ruleset.Names(),
		Ruleset:   rules,
	})
}

func (h *AdvisorHandler) fail(c echo.Context, err error) error {
	var capErr *tax.CapViolationError

	switch {
	case errors.As(err, &capErr):
		return c.JSON(http.StatusBadRequest, ViolationResponse{
			Message:    "Deduction exceeds its limit",
			Violations: capErr.Violations,
		})
	case errors.Is(err, advisor.ErrInvalidPayload):
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	case errors.Is(err, advisor.ErrStale):
		return c.JSON(http.StatusConflict, ResponseMsg{
			Message: "Superseded by a newer submission",
		})
	case errors.Is(err, advisor.ErrRemote):
		return c.JSON(http.StatusBadGateway, ResponseMsg{
			Message: err.Error(),
		})
	default:
		h.logger.Error("advisor failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Internal server error",
		})
	}
}
