package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igsource/pkg/ui"
)

var writeSchema bool

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the GraphQL schema of the sourced type",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVarP(&writeSchema, "write", "w", false, "also write the schema to output.schema_file")
	schemaCmd.Flags().StringVar(&typeFlag, "type", "", "node type name (defaults to source.type)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(changedFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	p, err := newPipeline(cfg, "", nil, log)
	if err != nil {
		return err
	}
	if err := p.source.Publish(); err != nil {
		return fmt.Errorf("failed to publish schema: %w", err)
	}

	fmt.Fprint(ui.Output, p.registry.SDL())

	if writeSchema {
		if err := p.registry.WriteSDL(cfg.SchemaPath()); err != nil {
			return err
		}
		if !quiet {
			ui.PrintSuccess("Schema written to " + cfg.SchemaPath())
		}
	}
	return nil
}
