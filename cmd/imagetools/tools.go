package main

import (
	"fmt"
	"strings"

	"github.com/dunamismax/imagetools/internal/catalog"
	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/spf13/cobra"
)

func newToolsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Browse the tool catalog",
	}
	cmd.AddCommand(
		newToolsListCmd(opts),
		newToolsSearchCmd(opts),
		newToolsShowCmd(opts),
		newToolsCategoriesCmd(opts),
	)
	return cmd
}

func newToolsListCmd(opts *cliOptions) *cobra.Command {
	var category, tier string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools, optionally by category and tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := catalog.Default()
			t, err := parseTierFlag(tier)
			if err != nil {
				return err
			}

			var tools []domain.ToolDescriptor
			if strings.TrimSpace(category) != "" {
				if _, err := reg.Category(category); err != nil {
					return fmt.Errorf("unknown category %q", category)
				}
				tools = reg.ListByCategory(category)
			} else {
				tools = reg.Tools()
			}
			return printTools(cmd.OutOrStdout(), catalog.FilterByTier(tools, t), opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category id (convert, resize, social, compress, pdf, edit, ai)")
	cmd.Flags().StringVar(&tier, "tier", "", "tier filter (tier1, tier2, tier3, bonus, all)")
	return cmd
}

func newToolsSearchCmd(opts *cliOptions) *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search tool names, descriptions and keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTierFlag(tier)
			if err != nil {
				return err
			}
			tools := catalog.Default().Search(strings.Join(args, " "))
			return printTools(cmd.OutOrStdout(), catalog.FilterByTier(tools, t), opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "tier filter (tier1, tier2, tier3, bonus, all)")
	return cmd
}

func newToolsShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show one tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := catalog.Default()
			tool, err := reg.GetBySlug(args[0])
			if err != nil {
				return err
			}
			category, err := reg.Category(tool.Category)
			if err != nil {
				return err
			}
			return printTool(cmd.OutOrStdout(), tool, category, opts.jsonOutput)
		},
	}
}

func newToolsCategoriesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with tool counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := catalog.Default()
			w := cmd.OutOrStdout()

			if opts.jsonOutput {
				out := make([]map[string]any, 0, len(reg.Categories()))
				for _, c := range reg.Categories() {
					out = append(out, map[string]any{
						"id":         c.ID,
						"name":       c.Name,
						"color":      c.Color,
						"style":      c.Color.Style(),
						"tool_count": reg.CountByCategory(c.ID),
					})
				}
				return writeJSON(w, map[string]any{"categories": out})
			}

			for _, c := range reg.Categories() {
				fmt.Fprintf(w, "%-10s %-22s %-7s %d\n", c.ID, c.Name, c.Color, reg.CountByCategory(c.ID))
			}
			return nil
		},
	}
}

func parseTierFlag(raw string) (domain.Tier, error) {
	t, ok := domain.ParseTier(raw)
	if !ok {
		return "", fmt.Errorf("unknown tier %q", raw)
	}
	return t, nil
}
