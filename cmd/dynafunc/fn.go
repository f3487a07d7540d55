package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dynafunc/internal/config"
	"dynafunc/internal/dynfunc"
	"dynafunc/internal/provider"
	"dynafunc/internal/roles"
)

func fnCmd() *cobra.Command {
	var chain bool
	var debug bool

	cmd := &cobra.Command{
		Use:   "fn",
		Short: "Define and call dynamic functions",
	}

	call := &cobra.Command{
		Use:   "call [name] [params...]",
		Short: "Call a dynamic function with positional parameters",
		Long:  "Parameters are parsed as JSON when possible, otherwise passed as strings. With --chain, each result feeds the next listed function.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			layer, err := buildLayer(cfg)
			if err != nil {
				return err
			}
			layer.SetDebugMode(debug || cfg.Functions.Debug)

			params := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				params = append(params, parseParam(a))
			}

			if chain || cfg.Functions.ChainMode {
				layer.SetChainMode(true)
			}
			result, err := layer.Call(cmd.Context(), args[0], params...)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	call.Flags().BoolVar(&chain, "chain", false, "enable chain mode for this call")
	call.Flags().BoolVar(&debug, "debug", false, "log prompts and raw replies")
	cmd.AddCommand(call)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List defined dynamic functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			defs, err := dynfunc.LoadDefinitions(cfg.Functions.Path)
			if err != nil {
				return err
			}
			for name, template := range defs {
				fmt.Printf("%s\t%s\n", name, template)
			}
			return nil
		},
	})

	return cmd
}

// buildLayer assembles provider -> transcript -> backend -> layer and loads
// the definitions file.
func buildLayer(cfg *config.Config) (*dynfunc.Layer, error) {
	factory := provider.NewFactory(cfg, logger)
	prov, err := factory.Default()
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	backend := provider.NewChatBackend(prov, roles.NewManager(), provider.BackendConfig{
		MaxTokens:   cfg.General.MaxTokens,
		Temperature: cfg.General.Temperature,
		Logger:      logger,
	})

	layer := dynfunc.NewLayer(backend, logger)
	defs, err := dynfunc.LoadDefinitions(cfg.Functions.Path)
	if err != nil {
		return nil, err
	}
	for name, template := range defs {
		layer.AddFunction(name, template)
	}
	return layer, nil
}

// parseParam decodes a CLI argument as JSON when it parses, else keeps the
// raw string. "5" becomes a number, "hello" stays a string.
func parseParam(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err == nil {
		return v
	}
	return arg
}
