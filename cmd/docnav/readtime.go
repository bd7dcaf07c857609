package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/readtime"
)

var readtimeCmd = &cobra.Command{
	Use:   "readtime FILE...",
	Short: "Estimate reading time for one or more files",
	Long: `Prints the estimated reading time of each file. Files that cannot be
read are reported as "-- M" instead of failing the whole run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReadtime,
}

func init() {
	rootCmd.AddCommand(readtimeCmd)
}

func runReadtime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	est := readtime.NewEstimator(cfg.ReadingWPM, cfg.PDFFallbackPdftotext)

	out := cmd.OutOrStdout()
	for _, path := range args {
		label := readtime.Unknown
		if data, err := os.ReadFile(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
		} else if e, err := est.EstimateBytes(data, path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
		} else {
			label = e.Label
		}
		fmt.Fprintf(out, "%s\t%s\n", label, path)
	}
	return nil
}
