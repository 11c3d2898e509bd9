package handler

import (
	"errors"
	"net/http"

	"github.com/AnnaCarter465/tax-advisor/database"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AdminCapRequest struct {
	Ruleset string   `json:"ruleset"`
	Amount  *float64 `json:"amount" validate:"required,gt=0"`
}

type AdminCapsResponse struct {
	Ruleset    string                  `json:"ruleset"`
	Categories []ruleset.Category      `json:"categories"`
	Overrides  []database.DeductionCap `json:"overrides"`
}

// AdminHandler edits the flat ceilings of the calculation service's rulesets.
type AdminHandler struct {
	vl       *validator.Validate
	db       IDB
	rulesets map[string]*ruleset.Ruleset
	fallback string
	logger   *zap.Logger
}

// NewAdminHandler serves the given rulesets; the first one answers requests that name none.
func NewAdminHandler(vl *validator.Validate, db IDB, logger *zap.Logger, rulesets ...*ruleset.Ruleset) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &AdminHandler{
		vl:       vl,
		db:       db,
		rulesets: make(map[string]*ruleset.Ruleset, len(rulesets)),
		logger:   logger,
	}

	for i, r := range rulesets {
		if i == 0 {
			h.fallback = r.Name
		}
		h.rulesets[r.Name] = r
	}

	return h
}

func (a *AdminHandler) lookup(name string) (*ruleset.Ruleset, bool) {
	if name == "" {
		name = a.fallback
	}

	r, ok := a.rulesets[name]
	return r, ok
}

func (a *AdminHandler) ListCaps(c echo.Context) error {
	base, ok := a.lookup(c.QueryParam("ruleset"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Unknown ruleset",
		})
	}

	overrides, err := a.db.FindAllDeductionCaps(c.Request().Context(), base.Name)
	if err != nil {
		a.logger.Error("find deduction caps", zap.String("ruleset", base.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Failed to load deduction caps",
		})
	}

	return c.JSON(http.StatusOK, AdminCapsResponse{
		Ruleset:    base.Name,
		Categories: base.WithCaps(database.Caps(overrides)).Categories,
		Overrides:  overrides,
	})
}

func (a *AdminHandler) UpdateCap(c echo.Context) error {
	var req AdminCapRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	if err := a.vl.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Invalid amount",
		})
	}

	base, ok := a.lookup(req.Ruleset)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Unknown ruleset",
		})
	}

	category := c.Param("category")
	if _, ok := base.Category(category); !ok {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Unknown category",
		})
	}

	updated, err := a.db.UpdateDeductionCap(c.Request().Context(), base.Name, category, *req.Amount)
	if err != nil {
		a.logger.Error("update deduction cap",
			zap.String("ruleset", base.Name),
			zap.String("category", category),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Failed to update deduction cap",
		})
	}

	a.logger.Info("deduction cap updated",
		zap.String("ruleset", updated.Ruleset),
		zap.String("category", updated.Category),
		zap.Float64("max_amount", updated.MaxAmount),
	)

	return c.JSON(http.StatusOK, updated)
}

// DeleteCap drops an override so the ruleset's own ceiling applies again.
func (a *AdminHandler) DeleteCap(c echo.Context) error {
	base, ok := a.lookup(c.QueryParam("ruleset"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Unknown ruleset",
		})
	}

	category := c.Param("category")
	if _, ok := base.Category(category); !ok {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Unknown category",
		})
	}

	err := a.db.DeleteDeductionCap(c.Request().Context(), base.Name, category)
	if errors.Is(err, database.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ResponseMsg{
			Message: "No override for category",
		})
	}
	if err != nil {
		a.logger.Error("delete deduction cap",
			zap.String("ruleset", base.Name),
			zap.String("category", category),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Failed to delete deduction cap",
		})
	}

	a.logger.Info("deduction cap deleted",
		zap.String("ruleset", base.Name),
		zap.String("category", category),
	)

	return c.NoContent(http.StatusNoContent)
}
