package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"igsource/pkg/nodes"
	"igsource/pkg/schema"
	"igsource/pkg/ui"
)

var nodesJSON bool

// nodesCmd represents the nodes command
var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List persisted nodes with resolved fields",
	Long: `List the nodes saved by the last sourcing cycle. Every field is resolved
through the schema, so formattedDate and localFile show what a query would
return.`,
	Args: cobra.NoArgs,
	RunE: runNodes,
}

func init() {
	rootCmd.AddCommand(nodesCmd)
	nodesCmd.Flags().BoolVar(&nodesJSON, "json", false, "print resolved nodes as JSON")
	nodesCmd.Flags().StringVar(&typeFlag, "type", "", "node type name (defaults to source.type)")
	nodesCmd.Flags().StringVar(&localeFlag, "locale", "", "locale for formattedDate (defaults to source.locale)")
}

func runNodes(cmd *cobra.Command, args []string) error {
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

	typeName := cfg.Source.Type
	list := p.store.Nodes(typeName)

	resolved := make([][]schema.ResolvedField, 0, len(list))
	for _, n := range list {
		fields, err := p.registry.ResolveAll(typeName, n)
		if err != nil {
			return err
		}
		resolved = append(resolved, fields)
	}

	if nodesJSON {
		out := make([]map[string]interface{}, len(resolved))
		for i, fields := range resolved {
			out[i] = make(map[string]interface{}, len(fields))
			for _, f := range fields {
				out[i][f.Name] = f.Value
			}
		}
		enc := json.NewEncoder(ui.Output)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(list) == 0 {
		ui.PrintWarning(fmt.Sprintf("No %s nodes in %s", typeName, cfg.NodesPath()))
		return nil
	}

	for i, fields := range resolved {
		rows := make([]ui.Row, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, ui.Row{Key: f.Name, Value: displayValue(f.Value)})
		}
		if i > 0 {
			fmt.Fprintln(ui.Output)
		}
		ui.PrintTable(list[i].ID, rows)
	}
	return nil
}

func displayValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ui.Dim("null")
	case string:
		if val == "" {
			return ui.Dim(`""`)
		}
		return val
	case *nodes.FileNode:
		return fmt.Sprintf("%s (%s, %s)", val.AbsolutePath, val.MediaType, ui.FormatBytes(val.Size))
	default:
		return fmt.Sprint(val)
	}
}
