package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/wellnesswave/internal/store"
)

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "Inspect and migrate stored assessments",
}

// openStore opens the store selected by --db or the environment.
func openStore(cmd *cobra.Command) (store.Store, error) {
	dsn, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cmd.Context(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

var assessmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent assessments",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		typ, _ := cmd.Flags().GetString("type")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.Assessments().List(cmd.Context(), store.ListOpts{Type: typ, Limit: limit})
		if err != nil {
			return fmt.Errorf("list assessments: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No assessments found.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-12s  %6s  %s\n", "ID", "Created", "Type", "Score", "Result")
		fmt.Println(strings.Repeat("─", 90))
		for _, a := range list {
			fmt.Printf("%-36s  %-19s  %-12s  %6.1f  %s\n",
				a.ID,
				a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				a.Type,
				a.Score,
				a.Result,
			)
		}
		return nil
	},
}

var assessmentsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one assessment as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		a, err := s.Assessments().Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("assessment %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get assessment: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	},
}

var assessmentsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Replace the destination store's assessments with those of the source",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			var err error
			if to, err = resolveDBPath(cmd); err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}
		}
		if from == to {
			return fmt.Errorf("source and destination are the same: %s", from)
		}

		ctx := cmd.Context()
		src, err := store.OpenExisting(ctx, from)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer src.Close()

		if err := store.EnsureDir(to); err != nil {
			return fmt.Errorf("prepare destination: %w", err)
		}
		dst, err := store.Open(ctx, to)
		if err != nil {
			return fmt.Errorf("open destination: %w", err)
		}
		defer dst.Close()

		n, err := store.Copy(ctx, src.Assessments(), dst.Assessments())
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Printf("Migrated %d assessments from %s (%s) to %s (%s)\n",
			n, from, src.Backend(), to, dst.Backend())
		return nil
	},
}

func init() {
	assessmentsListCmd.Flags().Int("limit", 20, "Maximum number of assessments to show (0 = all)")
	assessmentsListCmd.Flags().String("type", "", "Only show this questionnaire type")

	assessmentsMigrateCmd.Flags().String("from", "", "Source SQLite path or MongoDB URI (required)")
	assessmentsMigrateCmd.Flags().String("to", "", "Destination (default: --db or the configured store)")
	_ = assessmentsMigrateCmd.MarkFlagRequired("from")

	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsGetCmd)
	assessmentsCmd.AddCommand(assessmentsMigrateCmd)
}
