package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dunamismax/imagetools/internal/domain"
)

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printTools(w io.Writer, tools []domain.ToolDescriptor, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, map[string]any{
			"count": len(tools),
			"tools": tools,
		})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tCATEGORY\tTIER\tNAME")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Slug, t.Category, t.Tier, t.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d tools\n", len(tools))
	return err
}

func printTool(w io.Writer, tool domain.ToolDescriptor, category domain.CategoryDescriptor, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, map[string]any{
			"tool":     tool,
			"category": category,
		})
	}

	fmt.Fprintf(w, "%s (%s)\n", tool.Name, tool.Slug)
	fmt.Fprintf(w, "category: %s [%s]\n", category.Name, category.Color)
	fmt.Fprintf(w, "tier: %s\n", tool.Tier)
	fmt.Fprintf(w, "%s\n", tool.Description)
	if p := tool.Preset; p != (domain.Preset{}) {
		fmt.Fprintf(w, "preset: format=%s width=%d height=%d rotation=%d quality=%d\n",
			p.OutputFormat, p.Width, p.Height, p.RotationDegrees, p.Quality)
	}
	if len(tool.Keywords) > 0 {
		fmt.Fprintf(w, "keywords: %s\n", strings.Join(tool.Keywords, ", "))
	}
	for i, step := range tool.HowToUse {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	return nil
}
