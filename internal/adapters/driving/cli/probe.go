package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veritus-labs/scholia/internal/core/domain"
)

var (
	probeSubject string
	probeTopic   string
	probeYear    int
	probeK       int
	probeNoAsk   bool
)

var probeCmd = &cobra.Command{
	Use:   "probe [question]",
	Short: "Answer a research question from the corpus",
	Long: `Answers a research question from the indexed papers. When the corpus
cannot support a confident answer, candidate papers from arXiv are listed
and you choose which to download and index before the question is answered
again. Nothing is ever downloaded without your confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeSubject, "subject", "", "restrict retrieval to a subject")
	probeCmd.Flags().StringVar(&probeTopic, "topic", "", "restrict retrieval to a topic")
	probeCmd.Flags().IntVar(&probeYear, "year", 0, "restrict retrieval to a publication year")
	probeCmd.Flags().IntVarP(&probeK, "limit", "n", 0, "maximum number of chunks to retrieve")
	probeCmd.Flags().BoolVar(&probeNoAsk, "no-expand", false, "never offer corpus expansion")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	if err := initApp(); err != nil {
		return err
	}
	ctx := cmd.Context()

	filter := domain.QueryFilter{
		Subject: probeSubject,
		Topic:   probeTopic,
		K:       probeK,
	}
	if probeYear > 0 {
		year := probeYear
		filter.Year = &year
	}

	workflowID, result, err := researchService.Probe(ctx, args[0], filter)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	if !result.Insufficient {
		printResult(cmd, result)
		return nil
	}

	cmd.Printf("The corpus cannot answer this confidently (confidence %.2f).\n", result.Confidence)
	if probeNoAsk {
		printResult(cmd, result)
		return nil
	}

	candidates, err := researchService.RequestExpansion(ctx, workflowID, cfg.Arxiv.MaxResults)
	if err != nil {
		return fmt.Errorf("searching for papers: %w", err)
	}
	if len(candidates) == 0 {
		cmd.Println("No candidate papers found.")
		result, err = researchService.DeclineExpansion(ctx, workflowID)
		if err != nil {
			return err
		}
		printResult(cmd, result)
		return nil
	}

	cmd.Println("\nCandidate papers:")
	for i, c := range candidates {
		cmd.Printf("  [%d] %s", i+1, c.Title)
		if c.Year > 0 {
			cmd.Printf(" (%d)", c.Year)
		}
		cmd.Println()
		if len(c.Authors) > 0 {
			cmd.Printf("      %s\n", strings.Join(c.Authors, ", "))
		}
		if c.Abstract != "" {
			cmd.Printf("      %s\n", c.Abstract)
		}
	}

	selected, declined, err := promptSelection(cmd, candidates)
	if err != nil {
		return err
	}

	if declined {
		result, err = researchService.DeclineExpansion(ctx, workflowID)
		if err != nil {
			return err
		}
		cmd.Println("\nCorpus unchanged. Best available answer:")
		printResult(cmd, result)
		return nil
	}

	outcomes, err := researchService.ApplyExpansion(ctx, workflowID, selected)
	if err != nil {
		return fmt.Errorf("expanding corpus: %w", err)
	}
	for _, o := range outcomes {
		switch o.Status {
		case domain.CandidateIndexed:
			cmd.Printf("  indexed: %s (%d chunks)\n", o.Candidate.Title, o.ChunksIndexed)
		case domain.CandidateDuplicateSkipped:
			cmd.Printf("  already indexed: %s\n", o.Candidate.Title)
		default:
			cmd.Printf("  %s: %s: %v\n", o.Status, o.Candidate.Title, o.Err)
		}
	}

	result, err = researchService.Reprobe(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("re-probe failed: %w", err)
	}
	cmd.Println()
	printResult(cmd, result)
	return nil
}

// promptSelection reads the user's candidate choices from stdin. An empty
// line or "q" declines; "all" selects everything; otherwise a
// comma-separated list of numbers.
func promptSelection(
	cmd *cobra.Command, candidates []domain.CandidateRecord,
) (selected []domain.CandidateRecord, declined bool, err error) {
	cmd.Printf("\nDownload and index which papers? [1-%d, all, q to decline]: ", len(candidates))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return nil, true, scanner.Err()
	}
	line := strings.TrimSpace(scanner.Text())

	switch strings.ToLower(line) {
	case "", "q", "n", "no":
		return nil, true, nil
	case "all", "a":
		return candidates, false, nil
	}

	for _, field := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(candidates) {
			return nil, false, fmt.Errorf("invalid selection %q", field)
		}
		selected = append(selected, candidates[n-1])
	}
	if len(selected) == 0 {
		return nil, true, nil
	}
	return selected, false, nil
}

// printResult writes an answer with its sources and confidence.
func printResult(cmd *cobra.Command, result *domain.RetrievalResult) {
	if result.Answer != "" {
		cmd.Println(result.Answer)
	} else {
		cmd.Println("No answer could be produced from the corpus.")
	}

	if len(result.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, src := range result.Sources {
			cmd.Printf("  - %s", src.Title)
			if src.Year > 0 {
				cmd.Printf(" (%d)", src.Year)
			}
			cmd.Printf(", p.%d\n", src.Page)
		}
	}

	cmd.Printf("\nConfidence: %.2f", result.Confidence)
	if !result.Grounded {
		cmd.Print(" (not grounded in sufficient sources)")
	}
	cmd.Println()
}
