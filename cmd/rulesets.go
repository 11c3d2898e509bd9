package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRulesetsCommand() *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "rulesets",
		Short: "List the built-in rulesets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			if show != "" {
				rules, err := ruleset.Load(show)
				if err != nil {
					return err
				}

				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(rules); err != nil {
					return err
				}
				return enc.Close()
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tENDPOINT\tPOLICY\tDESCRIPTION")

			for _, name := range ruleset.Names() {
				rules, err := ruleset.Load(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rules.Name, rules.Endpoint, rules.Policy, rules.Description)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "print one ruleset as YAML")

	return cmd
}
