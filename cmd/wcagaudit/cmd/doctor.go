package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmarchand/wcagaudit/internal/core"
	"github.com/hmarchand/wcagaudit/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment before auditing",
	Long: `Doctor verifies that the host has the resources an audit needs and that
the review service and state directory are reachable and writable.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	var rev core.Reviewer
	if client, err := buildReviewer(appConfig); err != nil {
		return err
	} else if client != nil {
		rev = client
	}

	report := diagnostics.New(rev, appConfig.State.Path).Run(cmd.Context())

	fmt.Printf("wcagaudit %s (%s, go %s)\n\n", GetVersion(), report.Platform, report.GoVersion)
	for _, check := range report.Checks {
		fmt.Printf("  %-4s %-10s %s\n", statusIcon(check.Status), check.Name, check.Details)
	}
	fmt.Println()

	if !report.Healthy() {
		return fmt.Errorf("environment checks failed")
	}
	fmt.Println("All checks passed.")
	return nil
}

func statusIcon(status diagnostics.CheckStatus) string {
	switch status {
	case diagnostics.CheckOK:
		return "ok"
	case diagnostics.CheckWarn:
		return "warn"
	default:
		return "FAIL"
	}
}
