package cmd

import (
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the last interrupted audit session",
	Long: `Resume picks up the checkpoint written by a previous run and continues
from the first unfinished page. The page list and criteria grid must match
the checkpointed session; a mismatched plan is rejected.`,
	RunE: resumeAudit,
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVarP(&runPlanFile, "plan", "f", "", "audit plan file (pages and criteria)")
}

func resumeAudit(cmd *cobra.Command, _ []string) error {
	p, err := resolvePlan(appConfig, nil)
	if err != nil {
		return err
	}
	return executeSession(cmd.Context(), appConfig, p, true)
}
