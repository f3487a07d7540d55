package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dynafunc/internal/bench"
	"dynafunc/internal/dynfunc"
	"dynafunc/internal/provider"
	"dynafunc/internal/roles"
)

func benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run and inspect benchmarks",
	}

	var questionsPath string
	run := &cobra.Command{
		Use:   "run",
		Short: "Run a question set against the default provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			path := questionsPath
			if path == "" {
				path = cfg.Bench.Questions
			}
			if path == "" {
				return fmt.Errorf("no question set: pass --questions or set bench.questions")
			}
			name, questions, err := bench.LoadQuestions(path)
			if err != nil {
				return err
			}

			factory := provider.NewFactory(cfg, logger)
			prov, err := factory.Default()
			if err != nil {
				return fmt.Errorf("provider: %w", err)
			}
			backend := provider.NewChatBackend(prov, roles.NewManager(), provider.BackendConfig{
				MaxTokens:   cfg.General.MaxTokens,
				Temperature: cfg.General.Temperature,
				Logger:      logger,
			})

			layer := dynfunc.NewLayer(backend, logger)
			defs, err := dynfunc.LoadDefinitions(cfg.Functions.Path)
			if err != nil {
				return err
			}
			for fname, template := range defs {
				layer.AddFunction(fname, template)
			}

			store, err := bench.NewSQLiteStore(cfg.Bench.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			model := cfg.Providers[cfg.General.DefaultProvider].DefaultModel
			runner := bench.NewRunner(backend, store, prov.Name(), model, logger)
			runner.SetLayer(layer)

			logger.Info("benchmark starting", "set", name, "questions", len(questions))
			result, _, err := runner.Run(cmd.Context(), questions)
			if err != nil {
				return err
			}
			fmt.Printf("run %s: %d/%d correct in %dms\n",
				result.ID, result.Correct, result.Questions, result.ElapsedMs)
			return nil
		},
	}
	run.Flags().StringVar(&questionsPath, "questions", "", "path to a YAML question set")
	cmd.AddCommand(run)

	cmd.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show recent benchmark runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := bench.NewSQLiteStore(cfg.Bench.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), 20)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %s/%s  %d/%d  %dms  %s\n",
					r.ID, r.Provider, r.Model, r.Correct, r.Questions, r.ElapsedMs,
					r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "audit",
		Short: "Show recent tool executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			store, err := bench.NewSQLiteStore(cfg.Bench.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.AuditTrail(cmd.Context(), 50)
			if err != nil {
				return err
			}
			for _, r := range recs {
				status := "ok"
				if !r.OK {
					status = "failed: " + r.Error
				}
				fmt.Printf("%s  %s  %dms  %s\n", r.ID, r.Tool, r.ElapsedMs, status)
			}
			return nil
		},
	})

	return cmd
}
