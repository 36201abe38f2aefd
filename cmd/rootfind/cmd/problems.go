package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rootfind/internal/problems"
	"rootfind/internal/roots"
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List the built-in problems",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEQUATION\tINTERVAL\tNEWTON x0")
		for _, p := range problems.All() {
			x0 := p.Suggest(roots.MethodNewton).X0
			fmt.Fprintf(w, "%s\t%s\t[%g, %g]\t%g\n", p.ID, p.Formula, p.Lo, p.Hi, x0)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(problemsCmd)
}
