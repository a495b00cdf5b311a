package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edtriage/backend/internal/app"
	"github.com/edtriage/backend/internal/config"
	"github.com/edtriage/backend/internal/models"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool

	patient    models.PatientCase
	maxResults int
)

var rootCmd = &cobra.Command{
	Use:           "triagectl",
	Short:         "Literature-grounded triage from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Produce a triage assessment for a patient case",
	RunE:  runTriage,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [symptoms]",
	Short: "Suggest a specialty for the symptoms",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var literatureCmd = &cobra.Command{
	Use:   "literature [query]",
	Short: "List PubMed abstracts retrieved for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runLiterature,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	f := triageCmd.Flags()
	f.StringVar(&patient.Symptoms, "symptoms", "", "presenting symptoms")
	f.StringVar(&patient.Vitals, "vitals", "", "vital signs")
	f.StringVar(&patient.Age, "age", "", "patient age")
	f.StringVar(&patient.Weight, "weight", "", "patient weight")
	f.StringVar(&patient.PastMedicalHistory, "history", "", "past medical history")
	f.StringVar(&patient.LastKnownWell, "last-known-well", "", "time last known well")
	f.StringVar(&patient.ExamFindings, "exam", "", "exam findings")

	literatureCmd.Flags().IntVarP(&maxResults, "max", "n", 10, "maximum number of abstracts")

	rootCmd.AddCommand(triageCmd, classifyCmd, literatureCmd)
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildPipeline() (*app.Pipeline, error) {
	logger := utils.GetLogger()
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.NewPipeline(cfg, logger)
}

func runTriage(cmd *cobra.Command, args []string) error {
	if patient.IsEmpty() {
		return fmt.Errorf("at least one patient field is required")
	}
	pipeline, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx, _ := utils.EnsureRequestID(cmd.Context())
	result, err := pipeline.Triage.Triage(ctx, patient)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	pipeline, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx, _ := utils.EnsureRequestID(cmd.Context())
	result, err := pipeline.Triage.Classify(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	return nil
}

func runLiterature(cmd *cobra.Command, args []string) error {
	pipeline, err := buildPipeline()
	if err != nil {
		return err
	}

	documents, err := pipeline.Literature.Search(cmd.Context(), args[0], maxResults)
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No abstracts found.")
		return nil
	}
	for i, doc := range documents {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] PMID %s (%d chars)\n", i+1, doc.ID, len(doc.Text))
	}
	return nil
}
