package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/logger"
)

const maxReportedInvalid = 10

var validateCmd = &cobra.Command{
	Use:   "validate-embeddings",
	Short: "Check that every stored embedding has the expected dimension and finite values",
	Run: func(cmd *cobra.Command, _ []string) {
		validate(cmd)
	},
}

func init() {
	validateCmd.Flags().Int("dimension", 0, "expected embedding dimension (default is embedding.dimensions)")
	rootCmd.AddCommand(validateCmd)
}

func validate(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting config", zap.Error(err))
	}

	dim, _ := cmd.Flags().GetInt("dimension")
	if dim <= 0 {
		dim = config.Embedding.Dimensions
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeStore, err := openStore(ctx, config.Corpus, logger)
	if err != nil {
		logger.Fatal("opening corpus", zap.Error(err))
	}
	defer closeStore()

	postings, err := store.All(ctx)
	if err != nil {
		logger.Fatal("reading corpus", zap.Error(err))
	}

	report := corpus.Validate(postings, dim)
	fmt.Print(formatReport(report, dim))

	if report.Invalid > 0 {
		logger.Warn("invalid embeddings found", zap.Int("invalid", report.Invalid))
	}
}

func formatReport(report corpus.Report, dim int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Expected dimension: %d\n", dim)
	fmt.Fprintf(&b, "Valid embeddings:   %d\n", report.Valid)
	fmt.Fprintf(&b, "Invalid embeddings: %d\n", report.Invalid)

	if report.Invalid == 0 {
		return b.String()
	}

	ids := report.InvalidIDs
	if len(ids) > maxReportedInvalid {
		ids = ids[:maxReportedInvalid]
	}
	b.WriteString("First invalid job ids:")
	for _, id := range ids {
		fmt.Fprintf(&b, " %d", id)
	}
	b.WriteString("\n")
	return b.String()
}
