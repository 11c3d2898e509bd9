package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AnnaCarter465/tax-advisor/form"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/labstack/echo/v4"
)

type CheckCSV struct {
	Row             int     `json:"row"`
	GrossIncome     float64 `json:"gross_income"`
	TotalDeductions float64 `json:"total_deductions"`
	TaxableIncome   float64 `json:"taxable_income"`
	RequiresTax     bool    `json:"requires_tax"`
}

type CheckCSVResponse struct {
	Checks []CheckCSV `json:"checks"`
}

// CheckWithCSV runs the pre-check for every row of a CSV upload. The header names form fields,
// e.g. gross_income,bonus,number_of_children,life_insurance.
func (h *AdvisorHandler) CheckWithCSV(c echo.Context) error {
	if !strings.HasPrefix(c.Request().Header.Get("Content-Type"), "text/csv") {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Unacceptable content, require CSV content",
		})
	}

	reader := csv.NewReader(c.Request().Body)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request, might not be csv format",
		})
	}

	if len(rows) == 0 {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Wrong csv content, no content",
		})
	}

	if len(rows) == 1 {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Wrong csv content, should have more than 1 row due to it is header",
		})
	}

	header := rows[0]
	if !contains(header, "gross_income") && !contains(header, "salary") {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Wrong csv header",
		})
	}

	checks := make([]CheckCSV, 0, len(rows)-1)

	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return c.JSON(http.StatusBadRequest, ResponseMsg{
				Message: "Wrong csv column length",
			})
		}

		f, err := rowToForm(header, row)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseMsg{
				Message: fmt.Sprintf("Invalid row %d", i+1),
			})
		}

		out, err := h.advisor.Prepare(f)

		var capErr *tax.CapViolationError
		if errors.As(err, &capErr) {
			return c.JSON(http.StatusBadRequest, ViolationResponse{
				Message:    fmt.Sprintf("Deduction exceeds its limit in row %d", i+1),
				Violations: capErr.Violations,
			})
		}
		if err != nil {
			return h.fail(c, err)
		}

		checks = append(checks, CheckCSV{
			Row:             i + 1,
			GrossIncome:     out.Check.GrossIncome,
			TotalDeductions: out.Check.TotalDeductions,
			TaxableIncome:   out.Check.TaxableIncome,
			RequiresTax:     out.Check.RequiresTax,
		})
	}

	return c.JSON(http.StatusOK, CheckCSVResponse{
		Checks: checks,
	})
}

func rowToForm(header, row []string) (form.FormState, error) {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		fields[strings.TrimSpace(name)] = strings.TrimSpace(row[i])
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return form.FormState{}, err
	}

	return form.Decode(body)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == want {
			return true
		}
	}

	return false
}
