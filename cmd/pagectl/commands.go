package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/detailpage-backend/internal/domain/page"
	"github.com/yungbote/detailpage-backend/internal/export"
	"github.com/yungbote/detailpage-backend/internal/pagebuilder"
	"github.com/yungbote/detailpage-backend/internal/platform/logger"
	"github.com/yungbote/detailpage-backend/internal/preview"
)

type options struct {
	logMode  string
	output   string
	renderer string
	scale    float64
	chrome   bool
	title    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "pagectl",
		Short:         "Render and inspect detail pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logMode, "log-mode", "development", "logger mode (development or production)")
	root.AddCommand(newRenderCmd(opts), newDefaultsCmd(), newTypesCmd())
	return root
}

func newRenderCmd(opts *options) *cobra.Command {
	render := &cobra.Command{
		Use:   "render",
		Short: "Render a section file as PNG or HTML",
		Long: `Render reads a section template (YAML or JSON with a top-level "sections"
list) or a document as returned by GET /api/documents/:id.`,
	}
	render.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output path ('-' for stdout)")

	png := &cobra.Command{
		Use:   "png <file>",
		Short: "Rasterize the page to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderPNG(cmd, opts, args[0])
		},
	}
	png.Flags().StringVar(&opts.renderer, "renderer", "", "canvas or chrome (defaults to EXPORT_RENDERER)")
	png.Flags().Float64Var(&opts.scale, "scale", 0, "pixel ratio (defaults to EXPORT_SCALE)")

	html := &cobra.Command{
		Use:   "html <file>",
		Short: "Write the mobile preview as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderHTML(opts, args[0])
		},
	}
	html.Flags().BoolVar(&opts.chrome, "chrome", true, "draw the phone frame")
	html.Flags().StringVar(&opts.title, "title", "", "document title")

	render.AddCommand(png, html)
	return render
}

func newDefaultsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in starter page as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := yaml.Marshal(struct {
				Sections []page.SectionData `yaml:"sections"`
			}{pagebuilder.DefaultSections()})
			if err != nil {
				return err
			}
			return writeOutput(output, raw)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output path ('-' for stdout)")
	return cmd
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List section types",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, t := range page.SectionTypes {
				fmt.Fprintf(out, "%-9s %s  %s\n", t, t.Label(), t.Guide())
			}
		},
	}
}

func renderPNG(cmd *cobra.Command, opts *options, path string) error {
	log, err := logger.New(opts.logMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	sections, err := readSections(path)
	if err != nil {
		return err
	}

	cfg := export.ConfigFromEnv()
	if opts.renderer != "" {
		cfg.Renderer = opts.renderer
	}
	if opts.scale > 0 {
		cfg.Scale = opts.scale
	}
	raster, err := export.New(log, cfg)
	if err != nil {
		return err
	}
	png, err := raster.Rasterize(cmd.Context(), sections)
	if err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}

	out := opts.output
	if out == "" {
		out = export.FileName(time.Now())
	}
	if err := writeOutput(out, png); err != nil {
		return err
	}
	log.Info("Page exported", "sections", len(sections), "bytes", len(png), "output", out, "renderer", cfg.Renderer)
	return nil
}

func renderHTML(opts *options, path string) error {
	sections, err := readSections(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := preview.Render(&buf, sections, preview.Options{Chrome: opts.chrome, Title: opts.title}); err != nil {
		return err
	}
	out := opts.output
	if out == "" {
		out = "-"
	}
	return writeOutput(out, buf.Bytes())
}

// readSections accepts either a section template or an API document body.
func readSections(path string) ([]page.SectionData, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var envelope struct {
		Document *struct {
			Sections []page.SectionData `json:"sections"`
		} `json:"document"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Document != nil {
		if len(envelope.Document.Sections) == 0 {
			return nil, fmt.Errorf("%s: document has no sections", path)
		}
		return envelope.Document.Sections, nil
	}
	return pagebuilder.ParseSections(raw)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
