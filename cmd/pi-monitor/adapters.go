package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAdaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List registered jurisdiction adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tNAME\tYEARS\tPUBLIC\tPRIVATE\tRESOURCES")
			for _, ad := range a.registry.Adapters() {
				m := ad.Meta()
				fmt.Fprintf(w, "%s\t%s\t%d-%d\t%s\t%s\t%s\n",
					m.Slug, m.Name, m.StartYear, m.EndYear,
					strings.Join(m.PublicTypes, ","), strings.Join(m.PrivateTypes, ","),
					a.resources.Dir(m.Slug))
			}
			return w.Flush()
		},
	}
}
