// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/spf13/cobra"

	"inkwell/internal/markdown"
	"inkwell/internal/render"
	"inkwell/internal/richtext"
)

// newConvertCmd builds a subcommand that runs one converter method.
func newConvertCmd(opts *options, use, short string, convert func(*richtext.Converter, string) string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [file]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.settings(cmd.Flags())
			if err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			slog.Debug("converting", "command", use, "bytes", len(input), "raw_html", cfg.RawHTML, "align_tables", cfg.AlignTables)
			return writeOutput(cmd, opts, convert(richtext.New(cfg.ConverterOptions()), input))
		},
	}
}

func newNormalizeCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize Markdown or HTML text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.settings(cmd.Flags())
			if err != nil {
				return err
			}
			conv := richtext.New(cfg.ConverterOptions())

			var normalize func(string) string
			switch format {
			case "markdown":
				normalize = conv.NormalizeMarkdown
			case "html":
				normalize = conv.NormalizeHTML
			default:
				return fmt.Errorf("--format: unknown format %q (want markdown or html)", format)
			}

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return writeOutput(cmd, opts, normalize(input))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "grammar of the input: markdown or html")
	return cmd
}

func newRenderCmd(opts *options) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render Markdown to HTML as published pages do",
		Long: `render converts Markdown with the public page renderer, which highlights
fenced code. With --title the result is wrapped in the full page layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.settings(cmd.Flags())
			if err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			body, err := markdown.New(cfg.HighlightStyle).ToHTML(input)
			if err != nil {
				return err
			}
			if title == "" {
				return writeOutput(cmd, opts, body)
			}

			templates, err := render.New()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := templates.Page(&buf, "document", &render.PageData{Title: title, Body: template.HTML(body)}); err != nil {
				return err
			}
			return writeOutput(cmd, opts, buf.String())
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "wrap the output in the page layout with this title")
	return cmd
}
