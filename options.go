package xlparse

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultFlushCount is the number of records between flushes.
const DefaultFlushCount = 100

// Options holds programmatic settings for the Parser. Settings given here
// take precedence over the corresponding Config fields.
type Options struct {
	logger              zerolog.Logger
	flushCount          int
	sheets              []string
	ignoreSheetNotFound *bool
	location            *time.Location
	evaluator           ExpressionEvaluator
}

func defaultOptions() *Options {
	return &Options{
		logger: zerolog.Nop(),
	}
}

// Option configures the Parser.
type Option func(*Options)

// WithLogger sets the logger (default: disabled).
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithFlushCount sets the number of records between flushes (default: flush_count, else 100).
func WithFlushCount(n int) Option {
	return func(o *Options) { o.flushCount = n }
}

// WithSheets replaces the configured sheet names and patterns.
func WithSheets(sheets ...string) Option {
	return func(o *Options) { o.sheets = sheets }
}

// WithIgnoreSheetNotFound skips configured sheets that are missing from the workbook.
func WithIgnoreSheetNotFound(ignore bool) Option {
	return func(o *Options) { o.ignoreSheetNotFound = &ignore }
}

// WithLocation sets the time zone used when neither the column nor the
// configuration names one (default: UTC).
func WithLocation(loc *time.Location) Option {
	return func(o *Options) { o.location = loc }
}

// WithExpressionEvaluator replaces the evaluator used for ${...} placeholders
// in formula_replace targets.
func WithExpressionEvaluator(ev ExpressionEvaluator) Option {
	return func(o *Options) { o.evaluator = ev }
}
