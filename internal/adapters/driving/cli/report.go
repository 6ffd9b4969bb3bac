package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	reportTitle  string
	reportAuthor string
)

var reportCmd = &cobra.Command{
	Use:   "report [markdown-file]",
	Short: "Write a research report",
	Long:  `Reads a markdown body from a file (or - for stdin) and writes it as a titled report into the reports directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportTitle, "title", "t", "", "report title (required)")
	reportCmd.Flags().StringVarP(&reportAuthor, "author", "a", "", "report author")
	reportCmd.MarkFlagRequired("title") //nolint:errcheck
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := initApp(); err != nil {
		return err
	}

	var body []byte
	var err error
	if args[0] == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading report body: %w", err)
	}

	path, err := reportService.Generate(cmd.Context(), reportTitle, reportAuthor, string(body))
	if err != nil {
		return err
	}
	cmd.Printf("Report written to %s\n", path)
	return nil
}
