// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"inkwell/internal/config"
	"inkwell/internal/markdown"
	"inkwell/internal/richtext"
)

// options holds the flags shared by every subcommand.
type options struct {
	output      string
	configFile  string
	rawHTML     string
	alignTables bool
	style       string
	verbose     bool
}

// addFlags registers the shared flags on fs.
func (o *options) addFlags(fs *flag.FlagSet) {
	fs.StringVarP(&o.output, "output", "o", "", "write the result to `file` instead of stdout")
	fs.StringVar(&o.configFile, "config", "", "YAML configuration `file`")
	fs.StringVar(&o.rawHTML, "raw-html", "", "raw HTML policy in Markdown input: escape or passthrough")
	fs.BoolVar(&o.alignTables, "align-tables", false, "pad Markdown table cells to a common width")
	fs.StringVar(&o.style, "style", "", "chroma style for highlighted code in render")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log progress to stderr")
}

// settings resolves the effective configuration: defaults, then the config
// file, then flags that were set explicitly.
func (o *options) settings(fs *flag.FlagSet) (*config.Config, error) {
	cfg := &config.Config{HighlightStyle: markdown.DefaultStyle}

	if o.configFile != "" {
		f, err := config.LoadFile(o.configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(f); err != nil {
			return nil, err
		}
	}

	if fs.Changed("raw-html") {
		p, err := richtext.ParseRawHTMLPolicy(o.rawHTML)
		if err != nil {
			return nil, fmt.Errorf("--raw-html: %w", err)
		}
		cfg.RawHTML = p
	}
	if fs.Changed("align-tables") {
		cfg.AlignTables = o.alignTables
	}
	if fs.Changed("style") {
		cfg.HighlightStyle = o.style
	}
	if err := config.ValidateStyle(cfg.HighlightStyle); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "inkconv",
		Short: "Convert rich text between HTML and Markdown",
		Long: `inkconv converts HTML fragments to Markdown and back, normalizes either
grammar, and renders Markdown the way published inkwell pages do.

Input is read from the file argument, or stdin when it is omitted or "-".`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	opts.addFlags(root.PersistentFlags())

	root.AddCommand(
		newConvertCmd(opts, "to-markdown", "Convert an HTML fragment to Markdown", (*richtext.Converter).HTMLToMarkdown),
		newConvertCmd(opts, "to-html", "Convert Markdown to an HTML fragment", (*richtext.Converter).MarkdownToHTML),
		newNormalizeCmd(opts),
		newRenderCmd(opts),
	)
	return root
}

// readInput returns the contents of the file named by args, or stdin.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

// writeOutput writes s, newline-terminated, to --output or stdout.
func writeOutput(cmd *cobra.Command, opts *options, s string) error {
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if opts.output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), s)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(s), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Debug("output written", "path", opts.output, "bytes", len(s))
	return nil
}
