package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/layout-localizer/backend/internal/batch"
	"github.com/layout-localizer/backend/internal/config"
	"github.com/layout-localizer/backend/internal/export"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	configPath string
	inputDir   string
	formatName string
	pause      bool
)

var rootCmd = &cobra.Command{
	Use:   "localizer",
	Short: "Convert layout sheets into localization documents",
	Long: `Convert localization layout sheets into per-page, per-language JSON.

Each sheet row carries Name, pos_x, pos_y, scale_x and scale_y. Names look
like "<page>_<language>_<element>"; rows are grouped per page and language
and written as "<stem>Localization.txt" next to the sheet.

Without a subcommand every sheet in the input directory is converted.

Examples:
  localizer
  localizer --dir ./sheets --pause
  localizer convert menu.xlsx --stdout
  localizer serve`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runBatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: "+config.FileName+" next to the executable)")
	rootCmd.PersistentFlags().StringVar(&formatName, "format", "", "Output format: json or msgpack (default from config)")
	rootCmd.Flags().StringVar(&inputDir, "dir", "", "Directory to scan for sheets (default from config)")
	rootCmd.Flags().BoolVar(&pause, "pause", false, "Wait for Enter before exiting")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if pause {
		defer waitForEnter(cmd)
	}

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	driver, err := newDriver(cfg, "", cmd)
	if err != nil {
		return err
	}

	dir := inputDir
	if dir == "" {
		dir = cfg.Conversion.InputDirectory
	}

	summary, err := driver.RunDir(dir)
	if err != nil {
		return err
	}
	return reportSummary(cmd, summary)
}

// newDriver builds a batch driver from the configuration. outDir overrides
// the output directory when non-empty.
func newDriver(cfg *config.AppConfig, outDir string, cmd *cobra.Command) (*batch.Driver, error) {
	name := formatName
	if name == "" {
		name = cfg.Conversion.OutputFormat
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	converter, err := newConverter(cfg)
	if err != nil {
		return nil, err
	}

	return batch.NewDriver(newRegistry(cfg), converter, batch.Options{
		Extensions:   cfg.GetInputExtensions(),
		OutputDir:    outDir,
		OutputSuffix: cfg.Conversion.OutputSuffix,
		OutputExt:    cfg.Conversion.OutputExtension,
		Format:       format,
		Out:          cmd.OutOrStdout(),
	}), nil
}

func reportSummary(cmd *cobra.Command, summary *batch.Summary) error {
	out := cmd.OutOrStdout()

	// Sheet names are often CJK; pad by display width.
	width := 0
	for _, res := range summary.Results {
		if w := runewidth.StringWidth(filepath.Base(res.Input)); w > width {
			width = w
		}
	}
	if len(summary.Results) > 0 {
		fmt.Fprintln(out)
	}
	for _, res := range summary.Results {
		name := runewidth.FillRight(filepath.Base(res.Input), width)
		if res.Err != nil {
			fmt.Fprintf(out, "  %s  FAILED\n", name)
			continue
		}
		fmt.Fprintf(out, "  %s  %3d pages %5d elements %3d skipped\n",
			name, res.Stats.Pages, res.Stats.Elements, res.Stats.Skipped)
	}

	converted := len(summary.Results) - summary.Failed
	fmt.Fprintf(out, "Converted %d of %d sheets\n", converted, len(summary.Results))
	if summary.Failed > 0 {
		return fmt.Errorf("%d sheets failed", summary.Failed)
	}
	return nil
}

func waitForEnter(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), "Press Enter to exit...")
	bufio.NewReader(os.Stdin).ReadString('\n')
}
