package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/willpearse/bayesianflows/adapters/ingest"
	"github.com/willpearse/bayesianflows/adapters/postgres"
	"github.com/willpearse/bayesianflows/adapters/render"
	"github.com/willpearse/bayesianflows/adapters/rng"
	"github.com/willpearse/bayesianflows/adapters/sampler"
	"github.com/willpearse/bayesianflows/adapters/sampler/heuristic"
	"github.com/willpearse/bayesianflows/app"
	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/model"
	"github.com/willpearse/bayesianflows/internal"
	"github.com/willpearse/bayesianflows/internal/config"
	"github.com/willpearse/bayesianflows/internal/simulation"
	"github.com/willpearse/bayesianflows/ports"
	"github.com/willpearse/bayesianflows/ui"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bayesianflows",
		Short:         "Simulation-based validation for hierarchical flow models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCalibrateCmd(), newCheckCmd(), newServeCmd())
	return root
}

// samplerFlags are shared between calibrate and check.
type samplerFlags struct {
	chains     int
	iterations int
	warmup     int
}

func (f *samplerFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.chains, "chains", 4, "number of chains")
	cmd.Flags().IntVar(&f.iterations, "iterations", 2000, "iterations per chain")
	cmd.Flags().IntVar(&f.warmup, "warmup", 1000, "warmup iterations per chain")
}

func (f *samplerFlags) config(timeout time.Duration) model.SamplerConfig {
	return model.SamplerConfig{
		Chains:     f.chains,
		Iterations: f.iterations,
		Warmup:     f.warmup,
		Timeout:    timeout,
	}
}

func newCalibrateCmd() *cobra.Command {
	var (
		sf     samplerFlags
		truth  simulation.TruthConfig
		cycles int
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Run simulate-fit-compare calibration cycles on synthetic data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := internal.NewDefaultLogger()
			ctx, cancel := signalContext()
			defer cancel()

			rngAdapter := rng.NewSeededAdapter()
			engine, err := buildSampler(cfg, rngAdapter, truth.Seed)
			if err != nil {
				return err
			}

			service := app.NewCalibrationService(engine, rngAdapter)
			result, err := service.Run(ctx, app.CalibrationRequest{
				Truth:   truth,
				Sampler: sf.config(cfg.Sampler.Timeout),
				Cycles:  cycles,
				RunID:   core.RunID(core.NewID()),
			})
			if err != nil {
				return err
			}
			log.Info("calibration %s: %d cycles, aggregate coverage %.3f (%dms)",
				result.RunID, len(result.Reports), result.AggregateCoverage, result.RuntimeMs)

			renderer := render.NewMarkdownRenderer()
			for _, rep := range result.Reports {
				md, err := renderer.RenderRecovery(rep)
				if err != nil {
					return err
				}
				os.Stdout.Write(md)
				fmt.Println()
			}

			return persist(ctx, cfg, log, func(repo ports.RunRepository) error {
				return app.SaveCalibration(ctx, repo, result)
			})
		},
	}

	cmd.Flags().IntVar(&truth.GroupCount, "groups", 20, "number of groups (sites)")
	cmd.Flags().IntVar(&truth.MinObs, "min-obs", 5, "minimum observations per group")
	cmd.Flags().IntVar(&truth.MaxObs, "max-obs", 40, "maximum observations per group")
	cmd.Flags().Float64Var(&truth.EndYear, "end-year", 2024, "shared final observation year")
	cmd.Flags().Float64Var(&truth.Changepoint, "changepoint", 1990, "hinge changepoint year")
	cmd.Flags().Float64Var(&truth.Hyper.MuIntercept, "mu-intercept", 100, "population intercept mean")
	cmd.Flags().Float64Var(&truth.Hyper.SigmaIntercept, "sigma-intercept", 10, "population intercept sd")
	cmd.Flags().Float64Var(&truth.Hyper.MuSlope, "mu-slope", -0.5, "population slope mean")
	cmd.Flags().Float64Var(&truth.Hyper.SigmaSlope, "sigma-slope", 0.2, "population slope sd")
	cmd.Flags().Float64Var(&truth.Hyper.SigmaResidual, "sigma-resid", 5, "residual sd")
	cmd.Flags().Int64Var(&truth.Seed, "seed", 1, "base RNG seed")
	cmd.Flags().IntVar(&cycles, "cycles", 1, "number of independent calibration cycles")
	sf.register(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		sf          samplerFlags
		input       string
		sheet       string
		changepoint float64
		statistic   string
		replicates  int
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a posterior predictive check against an observed dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := internal.NewDefaultLogger()
			ctx, cancel := signalContext()
			defer cancel()

			var reader ports.DatasetReader = ingest.NewExcelReader(sheet)
			dataset, err := reader.Read(ctx, input, changepoint)
			if err != nil {
				return err
			}
			log.Info("loaded %s: %d observations across %d sites",
				input, len(dataset.Observations), dataset.GroupCount)

			rngAdapter := rng.NewSeededAdapter()
			engine, err := buildSampler(cfg, rngAdapter, seed)
			if err != nil {
				return err
			}

			service := app.NewCheckingService(engine, rngAdapter)
			result, err := service.Run(ctx, app.CheckRequest{
				Dataset:    dataset,
				Sampler:    sf.config(cfg.Sampler.Timeout),
				Statistic:  statistic,
				Replicates: replicates,
				Seed:       seed,
				RunID:      core.RunID(core.NewID()),
			})
			if err != nil {
				return err
			}
			log.Info("check %s: statistic %s, %d replicates (%dms)",
				result.RunID, statistic, replicates, result.RuntimeMs)

			md, err := render.NewMarkdownRenderer().RenderComparison(result.Comparison)
			if err != nil {
				return err
			}
			os.Stdout.Write(md)

			return persist(ctx, cfg, log, func(repo ports.RunRepository) error {
				return app.SaveCheck(ctx, repo, result)
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "observed dataset workbook (.xlsx)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().Float64Var(&changepoint, "changepoint", 1990, "hinge changepoint year")
	cmd.Flags().StringVar(&statistic, "statistic", "sd", fmt.Sprintf("group summary statistic (%v)", simulation.SummaryNames()))
	cmd.Flags().IntVar(&replicates, "replicates", 1000, "number of simulated replicate datasets")
	cmd.Flags().Int64Var(&seed, "seed", 1, "base RNG seed")
	cmd.MarkFlagRequired("input")
	sf.register(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs and rendered reports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("serve requires DATABASE_URL")
			}
			log := internal.NewDefaultLogger()
			ctx, cancel := signalContext()
			defer cancel()

			db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}

			server := &http.Server{
				Addr:    ":" + cfg.Server.Port,
				Handler: ui.NewServer(postgres.NewRunRepository(db), log).Router(),
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				server.Shutdown(shutdownCtx)
			}()

			log.Info("report server listening on :%s", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

// buildSampler selects the inference engine per configuration: an external
// HTTP sampler service, or the in-process heuristic stand-in.
func buildSampler(cfg *config.Config, rngPort ports.RNGPort, seed int64) (ports.Sampler, error) {
	switch cfg.Sampler.Mode {
	case "http":
		return sampler.NewHTTPClient(sampler.Config{
			BaseURL: cfg.Sampler.URL,
			Timeout: cfg.Sampler.Timeout,
		})
	default:
		return heuristic.NewEngine(rngPort, seed), nil
	}
}

// persist saves the run when a database is configured; without one the
// rendered report on stdout is the only output.
func persist(ctx context.Context, cfg *config.Config, log *internal.Logger, save func(ports.RunRepository) error) error {
	if cfg.Database.URL == "" {
		log.Debug("DATABASE_URL not set, skipping persistence")
		return nil
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	return save(postgres.NewRunRepository(db))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
