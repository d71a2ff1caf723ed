package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/app/models"
)

type toolsOptions struct {
	catalogPath string
	category    string
	asJSON      bool
}

// NewToolsCmd lists the tool catalog. It also validates a catalog file
// before it is deployed.
func NewToolsCmd() *cobra.Command {
	opts := &toolsOptions{}
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := tools.LoadCatalog(opts.catalogPath)
			if err != nil {
				return err
			}
			return printCatalog(cmd, catalog, opts)
		},
	}
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "catalog YAML file (defaults to the built-in catalog)")
	cmd.Flags().StringVar(&opts.category, "category", "", "only list tools in this category")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type toolRow struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
	Input    string `json:"input"`
	Render   string `json:"render"`
}

func printCatalog(cmd *cobra.Command, catalog *tools.Catalog, opts *toolsOptions) error {
	rows := make([]toolRow, 0, catalog.Len())
	for _, t := range catalog.All() {
		if opts.category != "" && !strings.EqualFold(t.Category, opts.category) {
			continue
		}
		rows = append(rows, newToolRow(t))
	}
	if opts.category != "" && len(rows) == 0 {
		return fmt.Errorf("no tools in category %q", opts.category)
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tCATEGORY\tMETHOD\tENDPOINT\tINPUT\tRENDER")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Slug, r.Name, r.Category, r.Method, r.Endpoint, r.Input, r.Render)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d tools\n", len(rows))
	return nil
}

func newToolRow(t *models.Tool) toolRow {
	return toolRow{
		Slug:     t.Slug,
		Name:     t.Name,
		Category: t.Category,
		Method:   t.Method,
		Endpoint: t.Endpoint,
		Input:    string(t.Input),
		Render:   string(t.Render),
	}
}
