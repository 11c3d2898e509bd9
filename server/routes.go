package server

import (
	"net/http"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/handler"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerCommon(e *echo.Echo, gatherer prometheus.Gatherer, banner string) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, banner)
	})
	e.GET("/health", handler.Healthcheck)

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func registerAdvisorRoutes(e *echo.Echo, h *handler.AdvisorHandler, gatherer prometheus.Gatherer, submitRateLimiter echo.MiddlewareFunc) {
	registerCommon(e, gatherer, "Tax advisor")

	e.GET("/rulesets", h.Rulesets)

	advisor := e.Group("/advisor")
	advisor.POST("/check", h.Check)
	advisor.POST("/check/csv", h.CheckWithCSV)
	advisor.POST("/submit", h.Submit, submitRateLimiter)
}

func registerCalcRoutes(e *echo.Echo, h *handler.CalcHandler, gatherer prometheus.Gatherer) {
	registerCommon(e, gatherer, "Tax calculation service")

	e.POST(calcapi.PathCalculateTax, h.CalculateTax)
	e.POST(calcapi.PathCalculate, h.Calculate)
}

func registerAdminRoutes(e *echo.Echo, h *handler.AdminHandler, adminMiddleware echo.MiddlewareFunc) {
	admin := e.Group("/admin", adminMiddleware)
	admin.GET("/deductions", h.ListCaps)
	admin.PUT("/deductions/:category", h.UpdateCap)
	admin.DELETE("/deductions/:category", h.DeleteCap)
}
