package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/AnnaCarter465/tax-advisor/advisor"
	"github.com/AnnaCarter465/tax-advisor/client"
	"github.com/AnnaCarter465/tax-advisor/config"
	"github.com/AnnaCarter465/tax-advisor/form"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/AnnaCarter465/tax-advisor/view"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	formPath string
	ruleset  string
	remote   bool
	plan     int
	json     bool
}

func newCheckCommand() *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a form file",
		Long: "Aggregate the deductions of a form and run the threshold pre-check. With --remote the " +
			"form is also sent to the calculation service and the selected plan is shown.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formPath, "form", "f", "", "path to the form JSON, - for stdin")
	cmd.Flags().StringVar(&opts.ruleset, "ruleset", "", "ruleset name, overrides RULESET")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "call the calculation service at CALC_SERVICE_URL")
	cmd.Flags().IntVar(&opts.plan, "plan", 0, "index of the plan to show")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the outcome as JSON")
	_ = cmd.MarkFlagRequired("form")

	return cmd
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	data, err := readForm(opts.formPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	f, err := form.Decode(data)
	if err != nil {
		return fmt.Errorf("form %s: %w", opts.formPath, err)
	}

	rulesCfg := cfg.Ruleset
	if opts.ruleset != "" {
		rulesCfg.Name = opts.ruleset
		rulesCfg.File = ""
	}

	rules, err := rulesCfg.Load()
	if err != nil {
		return err
	}

	a := advisor.New(rules, client.New(cfg.Calc.ServiceURL, cfg.Calc.Timeout), nil, nil, nil)

	var out advisor.Outcome
	if opts.remote {
		out, err = a.Evaluate(commandContext(cmd), f)
	} else {
		out, err = a.Prepare(f)
	}

	w := cmd.OutOrStdout()

	var capErr *tax.CapViolationError
	if errors.As(err, &capErr) {
		for _, v := range capErr.Violations {
			fmt.Fprintf(w, "over limit: %s\n", v)
		}
		return err
	}
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if err := renderCheck(w, out); err != nil {
		return err
	}

	if !opts.remote && !out.NoTaxRequired {
		_, err := fmt.Fprintln(w, "\nRun with --remote for the tax amount and investment plans.")
		return err
	}

	result := view.New(out.Result, out.Plans, out.NoTaxRequired)
	if err := result.Select(opts.plan); err != nil && len(out.Plans) > 0 {
		return err
	}

	fmt.Fprintln(w)
	return result.Render(w)
}

func readForm(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

func renderCheck(w io.Writer, out advisor.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	status := "No tax required"
	if out.Check.RequiresTax {
		status = "Tax required"
	}

	fmt.Fprintf(tw, "Ruleset\t%s\n", out.Ruleset)
	fmt.Fprintf(tw, "Gross income\t%s\n", view.Baht(out.Check.GrossIncome))
	fmt.Fprintf(tw, "Total deductions\t%s\n", view.Baht(out.Check.TotalDeductions))
	fmt.Fprintf(tw, "Taxable income\t%s\n", view.Baht(out.Check.TaxableIncome))
	fmt.Fprintf(tw, "Threshold\t%s\n", view.Baht(out.Check.Threshold))
	fmt.Fprintf(tw, "Pre-check\t%s\n", status)

	for _, v := range out.Warnings {
		fmt.Fprintf(tw, "Clamped\t%s\n", v)
	}

	return tw.Flush()
}
