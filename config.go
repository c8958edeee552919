package xlparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the declarative parser configuration, usually loaded from YAML.
// Pointer fields distinguish "unset" from zero values so that unset options
// fall through to the next configuration layer.
type Config struct {
	Sheet                  string   `yaml:"sheet,omitempty"`
	Sheets                 []string `yaml:"sheets,omitempty"`
	IgnoreSheetNotFound    bool     `yaml:"ignore_sheet_not_found,omitempty"`
	FlushCount             *int     `yaml:"flush_count,omitempty"`
	DefaultTimezone        string   `yaml:"default_timezone,omitempty"`
	DefaultTimestampFormat string   `yaml:"default_timestamp_format,omitempty"`

	SheetCommonOptions  `yaml:",inline"`
	ColumnCommonOptions `yaml:",inline"`

	SheetOptions map[string]*SheetOptions `yaml:"sheet_options,omitempty"`
	Columns      []ColumnConfig           `yaml:"columns"`
}

// SheetCommonOptions are options resolved per sheet.
type SheetCommonOptions struct {
	RecordType      *string `yaml:"record_type,omitempty"`
	SkipHeaderLines *int    `yaml:"skip_header_lines,omitempty"`
}

// ColumnCommonOptions are options that may be set on a column, a sheet
// override or globally.
type ColumnCommonOptions struct {
	NumericFormat    *string        `yaml:"numeric_format,omitempty"`
	SearchMergedCell *string        `yaml:"search_merged_cell,omitempty"`
	FormulaHandling  *string        `yaml:"formula_handling,omitempty"`
	FormulaReplace   *[]ReplaceRule `yaml:"formula_replace,omitempty"`
	OnEvaluateError  *string        `yaml:"on_evaluate_error,omitempty"`
	OnCellError      *string        `yaml:"on_cell_error,omitempty"`
	OnConvertError   *string        `yaml:"on_convert_error,omitempty"`
}

// ReplaceRule rewrites formula text before evaluation. To may contain
// ${row}, ${column} and ${sheet} placeholders.
type ReplaceRule struct {
	Regex string `yaml:"regex"`
	To    string `yaml:"to"`
}

// SheetOptions overrides options for sheets whose name matches the map key.
// A key may list several names separated by "/".
type SheetOptions struct {
	SheetCommonOptions  `yaml:",inline"`
	ColumnCommonOptions `yaml:",inline"`

	Columns map[string]*ColumnOptions `yaml:"columns,omitempty"`
}

// ColumnOptions are the options of a single output column.
type ColumnOptions struct {
	Value         *string   `yaml:"value,omitempty"`
	ColumnNumber  *string   `yaml:"column_number,omitempty"`
	CellColumn    *string   `yaml:"cell_column,omitempty"`
	CellRow       *string   `yaml:"cell_row,omitempty"`
	CellAddress   *string   `yaml:"cell_address,omitempty"`
	AttributeName *[]string `yaml:"attribute_name,omitempty"`
	Format        *string   `yaml:"format,omitempty"`
	Timezone      *string   `yaml:"timezone,omitempty"`

	ColumnCommonOptions `yaml:",inline"`
}

// ColumnConfig declares one output column.
type ColumnConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	ColumnOptions `yaml:",inline"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML configuration document. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// SheetPatterns returns the configured sheet names and patterns, sheet first.
func (c *Config) SheetPatterns() []string {
	var out []string
	if c.Sheet != "" {
		out = append(out, c.Sheet)
	}
	return append(out, c.Sheets...)
}

// Ptr returns a pointer to v. Handy for building configurations in code.
func Ptr[T any](v T) *T { return &v }
