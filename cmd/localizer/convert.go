package main

import (
	"fmt"
	"os"

	"github.com/layout-localizer/backend/internal/config"
	"github.com/layout-localizer/backend/internal/export"
	"github.com/spf13/cobra"
)

var (
	outDir   string
	toStdout bool
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Convert specific sheets",
	Long: `Convert the given sheets (.xlsx or .csv).

Output files are named "<stem>Localization.txt" and written next to each
sheet, or into --out-dir. With --stdout a single sheet is converted and the
document is printed instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Write outputs into this directory")
	convertCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the document to stdout (single file only)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if toStdout {
		if len(args) != 1 {
			return fmt.Errorf("--stdout takes exactly one file, got %d", len(args))
		}
		return printDocument(cmd, cfg, args[0])
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	driver, err := newDriver(cfg, outDir, cmd)
	if err != nil {
		return err
	}
	return reportSummary(cmd, driver.RunFiles(args))
}

func printDocument(cmd *cobra.Command, cfg *config.AppConfig, path string) error {
	name := formatName
	if name == "" {
		name = cfg.Conversion.OutputFormat
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	p, err := newRegistry(cfg).FindParser(path)
	if err != nil {
		return err
	}
	rows, rowErrs, err := p.Parse(path)
	if err != nil {
		return err
	}
	for _, pe := range rowErrs {
		fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s\n", pe.Line, pe.Reason)
	}

	converter, err := newConverter(cfg)
	if err != nil {
		return err
	}

	data, err := export.Marshal(converter.Convert(rows), format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
