package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/wellnesswave/internal/dataset"
	"github.com/abhisek/wellnesswave/internal/modelfile"
	"github.com/abhisek/wellnesswave/internal/training"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train screening models from survey CSV exports",
}

var trainAnxietyCmd = &cobra.Command{
	Use:   "anxiety",
	Short: "Train the anxiety model on a numeric symptom survey",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd, modelfile.KindAnxiety)
	},
}

var trainDepressionCmd = &cobra.Command{
	Use:   "depression",
	Short: "Train the depression model on a categorical symptom survey",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd, modelfile.KindDepression)
	},
}

func runTrain(cmd *cobra.Command, kind modelfile.Kind) error {
	dataPath, _ := cmd.Flags().GetString("data")
	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		outPath = fmt.Sprintf("models/%s.json", kind)
	}

	tbl, err := dataset.ReadCSVFile(dataPath)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	fmt.Printf("Loaded %d rows, %d columns from %s\n", len(tbl.Rows), len(tbl.Columns), dataPath)

	train := training.TrainDepression
	opts := training.DepressionOptions()
	if kind == modelfile.KindAnxiety {
		train = training.TrainAnxiety
		opts = training.AnxietyOptions()
	}
	if n, _ := cmd.Flags().GetInt("trees"); n > 0 {
		opts.Forest.NumTrees = n
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts.Seed = seed
		opts.Forest.Seed = seed
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	art, err := train(ctx, tbl, opts)
	if err != nil {
		return fmt.Errorf("train %s model: %w", kind, err)
	}
	fmt.Printf("Trained %d trees in %s\n", len(art.Forest.Trees), time.Since(start).Round(time.Millisecond))

	if err := art.Save(outPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	fmt.Println("Model saved to", outPath)

	printMetrics(art.Metrics)
	fmt.Println()
	printImportance(art.Importance())

	if csvPath, _ := cmd.Flags().GetString("importance-csv"); csvPath != "" {
		if err := art.SaveImportanceCSV(csvPath); err != nil {
			return fmt.Errorf("save feature importance: %w", err)
		}
		fmt.Println("Feature importance saved to", csvPath)
	}
	return nil
}

func printMetrics(m modelfile.Metrics) {
	fmt.Printf("\nModel accuracy (%s, %d samples): %.2f\n", m.Evaluated, m.Samples, m.Accuracy)
	if len(m.Report) > 0 {
		fmt.Println("\nClassification report:")
		fmt.Print(dataset.FormatReport(m.Report))
	}
}

func init() {
	for _, c := range []*cobra.Command{trainAnxietyCmd, trainDepressionCmd} {
		c.Flags().String("data", "", "Survey CSV export (required)")
		c.Flags().String("out", "", "Output model artifact (default models/<kind>.json)")
		c.Flags().String("importance-csv", "", "Also write feature importance as CSV")
		c.Flags().Int("trees", 0, "Number of trees (default per model)")
		c.Flags().Uint64("seed", 42, "Random seed for bootstrap and splits")
		_ = c.MarkFlagRequired("data")
		trainCmd.AddCommand(c)
	}
}
