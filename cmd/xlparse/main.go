// Command xlparse converts spreadsheet sheets into typed records.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/javajack/xlparse"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	sheets     []string
	timezone   string
)

var rootCmd = &cobra.Command{
	Use:   "xlparse",
	Short: "Convert spreadsheet sheets into typed records",
	Long: `xlparse reads xlsx workbooks and converts the cells addressed by a YAML
column configuration into typed records.

Commands:
  run       Parse a workbook and write JSON lines, CSV or PostgreSQL rows.
  validate  Check a configuration against a workbook.
  describe  Show where every column reads its value.
  serve     Expose the parser over HTTP.

Defaults for --config and --log-level can be set in .env as
XLPARSE_CONFIG and XLPARSE_LOG_LEVEL.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (env XLPARSE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace, debug, info, warn or error (env XLPARSE_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringSliceVar(&sheets, "sheet", nil, "Sheet names or globs, replacing the configured ones")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "Time zone for timestamps without one configured")
}

func main() {
	// .env is optional
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr.
func newLogger() (zerolog.Logger, error) {
	level := logLevel
	if level == "" {
		level = os.Getenv("XLPARSE_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// loadConfig reads --config, falling back to XLPARSE_CONFIG.
func loadConfig() (*xlparse.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("XLPARSE_CONFIG")
	}
	if path == "" {
		return nil, fmt.Errorf("no configuration: use --config or XLPARSE_CONFIG")
	}
	return xlparse.LoadConfig(path)
}

// parserOptions collects options from global flags.
func parserOptions(log zerolog.Logger) ([]xlparse.Option, error) {
	opts := []xlparse.Option{xlparse.WithLogger(log)}
	if len(sheets) > 0 {
		opts = append(opts, xlparse.WithSheets(sheets...))
	}
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		opts = append(opts, xlparse.WithLocation(loc))
	}
	return opts, nil
}

// setup loads the logger, the configuration and the parser options.
func setup() (zerolog.Logger, *xlparse.Config, []xlparse.Option, error) {
	log, err := newLogger()
	if err != nil {
		return log, nil, nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return log, nil, nil, err
	}
	opts, err := parserOptions(log)
	if err != nil {
		return log, nil, nil, err
	}
	return log, cfg, opts, nil
}
