package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dynafunc/internal/tool"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and invoke tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available tool definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			manager := buildManager(cfg)
			for _, dir := range cfg.Tools.Dirs {
				manager.Discover(dir, tool.LoadFromDirectory)
			}
			data, err := json.MarshalIndent(manager.Definitions(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "call [name] [json-arguments]",
		Short: "Invoke a tool directly (e.g. tools call shell '{\"command\":\"ls\"}')",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			manager := buildManager(cfg)
			for _, dir := range cfg.Tools.Dirs {
				manager.Discover(dir, tool.LoadFromDirectory)
			}

			raw := json.RawMessage(`{}`)
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}
			result, err := manager.Execute(cmd.Context(), args[0], raw, nil)
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
	})

	return cmd
}
