package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"khaja/internal/config"
)

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Print the effective plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := config.LoadPlanCatalog(cfg.Plans.File)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PLAN\tNAME\tTASKS\tPRICE\tPUBLISH\tAUTO-ACCEPT\tSERVICES")
			for _, p := range catalog.Plans() {
				services := make([]string, 0, len(p.Services))
				for id, limit := range p.Services {
					if limit > 0 {
						services = append(services, fmt.Sprintf("%s(%d)", id, limit))
						continue
					}
					services = append(services, id)
				}
				sort.Strings(services)
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%t\t%t\t%s\n",
					p.ID, p.Name, p.MaxTasks, p.MonthlyPrice, p.PublishOffers, p.AutoAcceptQuotes, strings.Join(services, ", "))
			}
			return w.Flush()
		},
	}
}
