package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/pable/go-nrl-stats/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats [code...]",
	Short: "Print the tracked stat columns and which count towards Total base",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		report.PrintStatDefs(os.Stdout, model.StatDefs)
		return nil
	}
	defs := make([]model.StatDef, 0, len(args))
	for _, code := range args {
		d, ok := model.LookupStat(strings.ToUpper(code))
		if !ok {
			return fmt.Errorf("unknown stat code %q", code)
		}
		defs = append(defs, d)
	}
	report.PrintStatDefs(os.Stdout, defs)
	return nil
}
