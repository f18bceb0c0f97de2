package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/filter"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List color filters",
	Long:  `List the color filters with their display labels and keyboard shortcuts.`,
	Example: `  # List filters in table format (default)
  photobooth filters

  # List filters in JSON format
  photobooth filters --format json`,
	RunE: runFilters,
}

var filtersFormat string

func init() {
	rootCmd.AddCommand(filtersCmd)

	filtersCmd.Flags().StringVarP(&filtersFormat, "format", "f", "table", "output format (table or json)")
}

type filterRow struct {
	Kind  filter.Kind `json:"kind"`
	Label string      `json:"label"`
	Key   string      `json:"key,omitempty"`
}

func runFilters(cmd *cobra.Command, args []string) error {
	var rows []filterRow
	for _, k := range filter.Kinds() {
		rows = append(rows, filterRow{Kind: k, Label: k.Label(), Key: string(booth.FilterKey(k))})
	}

	switch filtersFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILTER\tLABEL\tKEY")
		for _, r := range rows {
			key := r.Key
			if key == "" {
				key = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Kind, r.Label, key)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", filtersFormat)
	}
}
