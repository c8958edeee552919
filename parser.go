package xlparse

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

// Parser converts workbook sheets into typed records according to a Config.
type Parser struct {
	cfg    *Config
	opts   *Options
	schema Schema
}

// NewParser creates a Parser for cfg. Column types are checked here; the
// remaining options are resolved per sheet when parsing.
func NewParser(cfg *Config, opts ...Option) (*Parser, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.evaluator == nil {
		o.evaluator = NewExpressionEvaluator()
	}
	schema := make(Schema, 0, len(cfg.Columns))
	for _, c := range cfg.Columns {
		t, err := ParseTargetType(c.Type)
		if err != nil {
			return nil, &ConfigError{Column: c.Name, Err: err}
		}
		schema = append(schema, SchemaColumn{Name: c.Name, Type: t})
	}
	return &Parser{cfg: cfg, opts: o, schema: schema}, nil
}

// Schema returns the output schema.
func (p *Parser) Schema() Schema { return p.schema }

func (p *Parser) flushCount() int {
	switch {
	case p.opts.flushCount > 0:
		return p.opts.flushCount
	case p.cfg.FlushCount != nil && *p.cfg.FlushCount > 0:
		return *p.cfg.FlushCount
	}
	return DefaultFlushCount
}

func (p *Parser) ignoreSheetNotFound() bool {
	if p.opts.ignoreSheetNotFound != nil {
		return *p.opts.ignoreSheetNotFound
	}
	return p.cfg.IgnoreSheetNotFound
}

// patterns returns the configured sheet names and globs.
func (p *Parser) patterns() ([]string, error) {
	patterns := p.opts.sheets
	if len(patterns) == 0 {
		patterns = p.cfg.SheetPatterns()
	}
	if len(patterns) == 0 {
		return nil, &ConfigError{Err: configErrorf(ErrInvalidOption, "Attribute sheets is required but not set")}
	}
	return patterns, nil
}

// ResolveSheets expands sheet globs against the workbook. Plain names are
// kept even when the workbook lacks them; order of first appearance wins.
func (p *Parser) ResolveSheets(g Grid) ([]string, error) {
	patterns, err := p.patterns()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, s := range patterns {
		if !strings.ContainsAny(s, "*?") {
			add(s)
			continue
		}
		m, err := compileSheetGlob(s)
		if err != nil {
			return nil, &ConfigError{Err: configErrorf(ErrInvalidOption, "illegal sheet pattern=%q: %v", s, err)}
		}
		for _, name := range g.SheetNames() {
			if m.Match(name) {
				add(name)
			}
		}
	}
	return out, nil
}

// compileSheetGlob compiles a pattern where only * and ? are wildcards.
func compileSheetGlob(pattern string) (glob.Glob, error) {
	var b strings.Builder
	lit := 0
	for i := 0; i < len(pattern); i++ {
		if c := pattern[i]; c == '*' || c == '?' {
			b.WriteString(glob.QuoteMeta(pattern[lit:i]))
			b.WriteByte(c)
			lit = i + 1
		}
	}
	b.WriteString(glob.QuoteMeta(pattern[lit:]))
	return glob.Compile(b.String())
}

// sheetPlan is everything resolved once per sheet before reading records.
type sheetPlan struct {
	settings *SheetSettings
	specs    []*ColumnSpec
	bindings []ColumnBinding
}

func (p *Parser) plan(sheet string) (*sheetPlan, error) {
	st, err := p.cfg.ResolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	specs, err := p.cfg.columnSpecs(sheet, specDefaults{location: p.opts.location})
	if err != nil {
		return nil, err
	}
	bindings, err := BindColumns(sheet, specs, st.Orientation)
	if err != nil {
		return nil, err
	}
	return &sheetPlan{settings: st, specs: specs, bindings: bindings}, nil
}

// Plan resolves the configuration of one sheet without reading records.
func (p *Parser) Plan(sheet string) ([]*ColumnSpec, []ColumnBinding, *SheetSettings, error) {
	pl, err := p.plan(sheet)
	if err != nil {
		return nil, nil, nil, err
	}
	return pl.specs, pl.bindings, pl.settings, nil
}

// Parse reads every selected sheet of g into sink. Records are flushed every
// flush_count records and at the end of each sheet.
func (p *Parser) Parse(ctx context.Context, g Grid, sink Sink) error {
	log := p.opts.logger
	sheets, err := p.ResolveSheets(g)
	if err != nil {
		return err
	}
	log.Debug().Strs("sheets", sheets).Msg("resolved sheet names")

	merged := NewMergedRegionIndex(g)
	for _, sheet := range sheets {
		if SheetIndex(g, sheet) < 0 {
			if p.ignoreSheetNotFound() {
				log.Info().Str("sheet", sheet).Msg("ignore: not found sheet")
				continue
			}
			return fmt.Errorf("%w: not found sheet=%s", ErrSheetNotFound, sheet)
		}
		if err := p.parseSheet(ctx, g, merged, sheet, sink); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseSheet(ctx context.Context, g Grid, merged *MergedRegionIndex, sheet string, sink Sink) error {
	log := p.opts.logger.With().Str("sheet", sheet).Logger()

	pl, err := p.plan(sheet)
	if err != nil {
		return err
	}
	log.Info().
		Str("record_type", pl.settings.Orientation.String()).
		Int("skip_header_lines", pl.settings.Skip).
		Msg("sheet")
	if log.GetLevel() <= zerolog.DebugLevel {
		for i, spec := range pl.specs {
			logBinding(log, spec, pl.bindings[i], pl.settings.Orientation)
		}
	}

	for _, spec := range pl.specs {
		if spec.SearchMerged == MergedNone {
			continue
		}
		if err := merged.Prepare(spec.SearchMerged, sheet); err != nil {
			return fmt.Errorf("merged regions of sheet %q: %w", sheet, err)
		}
	}

	cur, err := NewRecordCursor(pl.settings.Orientation, g, sheet, pl.settings.Skip)
	if err != nil {
		return err
	}
	eng := &valueEngine{
		grid:      g,
		sheet:     sheet,
		merged:    merged,
		evaluator: p.opts.evaluator,
		log:       log,
	}

	flushCount := p.flushCount()
	count := 0
	for ; cur.Exists(); cur.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Trace().Str("record", cur.String()).Msg("start")
		for i, spec := range pl.specs {
			v, err := eng.Resolve(spec, pl.bindings[i], cur)
			if err != nil {
				return err
			}
			writeValue(sink, i, v)
		}
		if err := sink.AddRecord(); err != nil {
			return err
		}
		if count++; count >= flushCount {
			log.Trace().Msg("flush")
			if err := sink.Flush(ctx); err != nil {
				return err
			}
			count = 0
		}
		log.Trace().Str("record", cur.String()).Msg("end")
	}
	return sink.Flush(ctx)
}

// logBinding writes the column.name=<n> <- cell_column=B, value=cell_value line.
func logBinding(log zerolog.Logger, spec *ColumnSpec, b ColumnBinding, o Orientation) {
	if where := b.Describe(o); where != "" {
		log.Debug().Msgf("column.name=%s <- %s, value=%s", spec.Name, where, spec.Value)
		return
	}
	log.Debug().Msgf("column.name=%s <- value=%s", spec.Name, spec.Value)
}
