package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaFileName       = "backtest-engine-v1-config.json"
	sampleConfigFileName = "backtest-engine-v1-config.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the engine configuration JSON schema, or a strategy's parameter schema",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "Print this strategy's parameter schema instead"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the engine schema and a sample config into this folder"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				schema string
				err    error
			)

			if name := cmd.String("strategy"); name != "" {
				schema, err = strategy.DefaultRegistry().Schema(name)
			} else {
				log, logErr := newLogger(cmd)
				if logErr != nil {
					return logErr
				}

				backtest, engineErr := newEngine("", log)
				if engineErr != nil {
					return engineErr
				}

				schema, err = backtest.GetConfigSchema()
			}

			if err != nil {
				return err
			}

			if dir := cmd.String("output"); dir != "" && cmd.String("strategy") == "" {
				return writeConfigFiles(dir, schema)
			}

			fmt.Fprintln(cmd.Root().Writer, schema)

			return nil
		},
	}
}

// writeConfigFiles writes the schema and, unless one exists, a sample config
// pointing editors at it.
func writeConfigFiles(dir string, schema string) error {
	schemaPath := filepath.Join(dir, schemaFileName)
	samplePath := filepath.Join(dir, sampleConfigFileName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	if _, err := os.Stat(samplePath); !os.IsNotExist(err) {
		return nil
	}

	config := engine.EmptyConfig()

	raw, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config: %w", err)
	}

	raw = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), raw...)

	if err := os.WriteFile(samplePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}

	return nil
}

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List the registered strategies",
		Action: func(_ context.Context, cmd *cli.Command) error {
			registry := strategy.DefaultRegistry()

			for _, name := range registry.List() {
				ranges, err := registry.ParameterRanges(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.Root().Writer, "%s (%d optimizable parameters)\n", name, len(ranges))
			}

			return nil
		},
	}
}
