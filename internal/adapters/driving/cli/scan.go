package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanWatch bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index papers already on disk",
	Long: `Walks the papers directory and indexes any PDF the vector index does
not contain yet. Use --watch to keep running and index papers as they are
dropped into the tree.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "keep watching for new papers")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if err := initApp(); err != nil {
		return err
	}
	ctx := cmd.Context()

	indexed, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	cmd.Printf("Indexed %d new paper(s).\n", indexed)

	if scanWatch || cfg.Papers.Watch {
		return scanner.Watch(ctx)
	}
	return nil
}
