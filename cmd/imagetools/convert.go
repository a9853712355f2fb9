package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dunamismax/imagetools/internal/catalog"
	"github.com/dunamismax/imagetools/internal/pipeline"
	"github.com/dunamismax/imagetools/internal/session"
	"github.com/spf13/cobra"
)

func newConvertCmd(opts *cliOptions) *cobra.Command {
	var (
		out     string
		format  string
		width   int
		height  int
		rotate  int
		quality int
	)

	cmd := &cobra.Command{
		Use:   "convert <slug> <input>",
		Short: "Run a tool on a local image",
		Long: "Runs the tool's preset on a local image, with any flags overriding the preset, " +
			"and writes <slug>.<ext> next to the input unless --out is given.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, input := args[0], args[1]

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			if err := pipeline.Startup(); err != nil {
				return fmt.Errorf("start image runtime: %w", err)
			}
			defer pipeline.Shutdown()

			p, err := pipeline.New()
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			sessions := session.NewManager(opts.logger.WithField("component", "convert"), catalog.Default(), p, session.Config{
				MaxUploadBytes:      opts.cfg.Session.MaxUploadBytes,
				MaxActiveTransforms: 1,
			})
			defer sessions.Close()

			c, err := sessions.Open(slug)
			if err != nil {
				return err
			}

			if _, err := c.Upload(session.Upload{
				Filename:     filepath.Base(input),
				DeclaredType: mime.TypeByExtension(filepath.Ext(input)),
				Data:         data,
			}); err != nil {
				return err
			}

			flags := cmd.Flags()
			var params session.Params
			if flags.Changed("width") {
				params.Width = &width
			}
			if flags.Changed("height") {
				params.Height = &height
			}
			if flags.Changed("rotate") {
				params.Rotation = &rotate
			}
			if flags.Changed("quality") {
				params.Quality = &quality
			}
			if flags.Changed("format") {
				params.Format = format
			}

			snap, err := c.Process(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("process %s: %w", input, err)
			}

			artifact, err := c.Download()
			if err != nil {
				return err
			}

			dest := out
			if dest == "" {
				dest = filepath.Join(filepath.Dir(input), artifact.Filename)
			}
			if err := os.WriteFile(dest, artifact.Data, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, map[string]any{
					"output": dest,
					"result": snap.Result,
				})
			}
			_, err = fmt.Fprintf(w, "wrote %s (%dx%d, %d bytes)\n", dest, snap.Result.Width, snap.Result.Height, snap.Result.Bytes)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "", "output path")
	flags.StringVar(&format, "format", "", "output format (jpeg, png, webp)")
	flags.IntVar(&width, "width", 0, "target width, 0 keeps the source width")
	flags.IntVar(&height, "height", 0, "target height, 0 keeps the source height")
	flags.IntVar(&rotate, "rotate", 0, "clockwise rotation (0, 90, 180, 270)")
	flags.IntVar(&quality, "quality", 0, "encoder quality 1-100 for lossy formats")
	return cmd
}
