package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/wellnesswave/internal/modelfile"
)

var importanceCmd = &cobra.Command{
	Use:   "importance <model.json>",
	Short: "Show a model's metadata and feature importance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		art, err := modelfile.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Kind:      %s\n", art.Kind)
		fmt.Printf("Format:    %s\n", art.FormatVersion)
		fmt.Printf("Created:   %s\n", art.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Target:    %s\n", art.Target)
		fmt.Printf("Classes:   %s\n", strings.Join(art.Classes, ", "))
		fmt.Printf("Trees:     %d\n", len(art.Forest.Trees))
		printMetrics(art.Metrics)
		fmt.Println()
		printImportance(art.Importance())

		if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
			if err := art.SaveImportanceCSV(csvPath); err != nil {
				return err
			}
			fmt.Println("Feature importance saved to", csvPath)
		}
		return nil
	},
}

func printImportance(imp []modelfile.FeatureImportance) {
	width := len("Feature")
	for _, fi := range imp {
		width = max(width, len(fi.Feature))
	}

	fmt.Println("Feature Importance")
	fmt.Println(strings.Repeat("─", width+14))
	fmt.Printf("%-*s  %10s\n", width, "Feature", "Importance")
	fmt.Println(strings.Repeat("─", width+14))
	for _, fi := range imp {
		fmt.Printf("%-*s  %10.4f\n", width, fi.Feature, fi.Importance)
	}
}

func init() {
	importanceCmd.Flags().String("csv", "", "Also write the importance table as CSV")
}
