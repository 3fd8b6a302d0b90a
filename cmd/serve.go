package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/wellnesswave/internal/assessment"
	"github.com/abhisek/wellnesswave/internal/metrics"
	"github.com/abhisek/wellnesswave/internal/modelfile"
	"github.com/abhisek/wellnesswave/internal/screening"
	"github.com/abhisek/wellnesswave/internal/server"
	"github.com/abhisek/wellnesswave/internal/store"
)

const storeConnectTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the screening and assessment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			cfg.Addr = v
		}
		if v, _ := cmd.Flags().GetString("anxiety-model"); v != "" {
			cfg.AnxietyModel = v
		}
		if v, _ := cmd.Flags().GetString("depression-model"); v != "" {
			cfg.DepressionModel = v
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := server.Options{
			Logger:      logger,
			Metrics:     metrics.New(),
			CORSOrigins: cfg.CORSOrigins,
		}

		if m := loadModel(logger, cfg.AnxietyModel, modelfile.KindAnxiety); m != nil {
			p, err := screening.NewAnxietyPredictor(m)
			if err != nil {
				return fmt.Errorf("anxiety model %s: %w", cfg.AnxietyModel, err)
			}
			opts.Anxiety = p
		}
		if m := loadModel(logger, cfg.DepressionModel, modelfile.KindDepression); m != nil {
			p, err := screening.NewDepressionPredictor(m)
			if err != nil {
				return fmt.Errorf("depression model %s: %w", cfg.DepressionModel, err)
			}
			opts.Depression = p
		}

		dsn := cfg.DB
		if dsn == "" {
			if dsn, err = store.DefaultDBPath(); err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}
		} else if err := store.EnsureDir(dsn); err != nil {
			return fmt.Errorf("prepare database directory: %w", err)
		}
		// Predictions still work without a store.
		if st, err := openAssessmentStore(ctx, dsn); err != nil {
			logger.Error("assessment store unavailable", zap.Error(err))
		} else {
			defer st.Close()
			logger.Info("assessment store connected", zap.String("backend", st.Backend()))
			opts.Assessments = assessment.NewService(st.Assessments())
		}

		return server.New(opts).ListenAndServe(ctx, cfg.Addr)
	},
}

// openAssessmentStore opens dsn and checks it answers within
// storeConnectTimeout.
func openAssessmentStore(ctx context.Context, dsn string) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ping %s store: %w", st.Backend(), err)
	}
	return st, nil
}

// loadModel loads and checks an artifact. A missing file is logged and
// yields nil so the service can run without that predictor.
func loadModel(logger *zap.Logger, path string, kind modelfile.Kind) *modelfile.Artifact {
	m, err := modelfile.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("model file not found; predictor disabled",
			zap.String("kind", string(kind)), zap.String("path", path))
		return nil
	case err != nil:
		logger.Error("failed to load model; predictor disabled",
			zap.String("kind", string(kind)), zap.String("path", path), zap.Error(err))
		return nil
	}
	logger.Info("model loaded",
		zap.String("kind", string(kind)),
		zap.String("path", path),
		zap.Int("features", len(m.Features)),
		zap.Int("trees", len(m.Forest.Trees)),
		zap.Float64("accuracy", m.Metrics.Accuracy),
	)
	return m
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides WELLNESSWAVE_ADDR)")
	serveCmd.Flags().String("anxiety-model", "", "Anxiety model artifact (overrides WELLNESSWAVE_ANXIETY_MODEL)")
	serveCmd.Flags().String("depression-model", "", "Depression model artifact (overrides WELLNESSWAVE_DEPRESSION_MODEL)")
}
