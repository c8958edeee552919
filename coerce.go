package xlparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/itchyny/timefmt-go"
	"github.com/xuri/excelize/v2"
)

// Value is one typed output value.
type Value struct {
	Type   TargetType
	Null   bool
	Bool   bool
	Long   int64
	Double float64
	String string
	Time   time.Time
}

// NullValue returns a null of the given type.
func NullValue(t TargetType) Value { return Value{Type: t, Null: true} }

// Interface returns the value as a plain Go value; nil for null.
func (v Value) Interface() any {
	if v.Null {
		return nil
	}
	switch v.Type {
	case TypeBoolean:
		return v.Bool
	case TypeLong:
		return v.Long
	case TypeDouble:
		return v.Double
	case TypeTimestamp:
		return v.Time
	}
	return v.String
}

// sourceKind tags the content handed to the coercion table.
type sourceKind int

const (
	srcNumeric sourceKind = iota
	srcString
	srcBool
	srcErrorCode
	srcLong
	srcSheetName
	srcRowNumber
	srcColumnNumber
	srcBlank
)

var sourceKindNames = [...]string{
	"numeric", "string", "boolean", "error code", "long",
	"sheet_name", "row_number", "column_number", "blank",
}

func (k sourceKind) String() string { return sourceKindNames[k] }

// source is a value awaiting coercion.
type source struct {
	kind sourceKind
	num  float64
	str  string
	b    bool
	n    int64 // long, error code, sheet index, 1-based row/column number
}

func numericSource(v float64) source { return source{kind: srcNumeric, num: v} }
func stringSource(s string) source   { return source{kind: srcString, str: s} }
func boolSource(b bool) source       { return source{kind: srcBool, b: b} }
func errorSource(code int) source    { return source{kind: srcErrorCode, n: int64(code)} }
func longSource(n int64) source      { return source{kind: srcLong, n: n} }
func blankSource() source            { return source{kind: srcBlank} }

func sheetNameSource(name string, index int) source {
	return source{kind: srcSheetName, str: name, n: int64(index)}
}

// contentSource converts non-formula cell content.
func contentSource(c CellContent) source {
	switch c.Kind {
	case CellNumeric:
		return numericSource(c.Number)
	case CellString:
		return stringSource(c.Text)
	case CellBoolean:
		return boolSource(c.Bool)
	case CellErrorCode:
		return errorSource(c.ErrCode)
	}
	return blankSource()
}

// display is the source as shown in convert error messages.
func (s source) display() any {
	switch s.kind {
	case srcNumeric:
		return s.num
	case srcString, srcSheetName:
		return s.str
	case srcBool:
		return s.b
	case srcBlank:
		return nil
	}
	return s.n
}

// errUnsupportedConversion marks table cells with no conversion.
var errUnsupportedConversion = errors.New("unsupported conversion")

// coercer converts sources into values of one column.
type coercer struct {
	spec     *ColumnSpec
	date1904 bool
}

// coerce applies the conversion table and routes failures through the
// column's convert-error strategy.
func (c coercer) coerce(s source) (Value, error) {
	v, err := c.convert(s)
	if err == nil {
		return v, nil
	}
	var fatal *formatError
	if errors.As(err, &fatal) {
		return Value{}, err
	}
	return c.convertError(s, err)
}

func (c coercer) target() TargetType { return c.spec.Type.coercionTarget() }

func (c coercer) null() Value { return NullValue(c.spec.Type) }

func (c coercer) convert(s source) (Value, error) {
	t := c.target()
	if s.kind == srcBlank {
		return c.null(), nil
	}
	v := Value{Type: c.spec.Type}
	switch t {
	case TypeBoolean:
		switch s.kind {
		case srcNumeric:
			v.Bool = s.num != 0
		case srcString:
			v.Bool = strings.EqualFold(s.str, "true")
		case srcBool:
			v.Bool = s.b
		case srcErrorCode:
			return c.null(), nil
		default:
			v.Bool = s.n != 0
		}
	case TypeLong:
		switch s.kind {
		case srcNumeric:
			v.Long = int64(s.num)
		case srcString:
			n, err := strconv.ParseInt(s.str, 10, 64)
			if err != nil {
				return Value{}, err
			}
			v.Long = n
		case srcBool:
			v.Long = boolInt(s.b)
		default:
			v.Long = s.n
		}
	case TypeDouble:
		switch s.kind {
		case srcNumeric:
			v.Double = s.num
		case srcString:
			f, err := strconv.ParseFloat(strings.TrimSpace(s.str), 64)
			if err != nil {
				return Value{}, err
			}
			v.Double = f
		case srcBool:
			v.Double = float64(boolInt(s.b))
		default:
			v.Double = float64(s.n)
		}
	case TypeString:
		switch s.kind {
		case srcNumeric:
			str, err := formatNumber(s.num, c.spec.NumericFormat)
			if err != nil {
				return Value{}, err
			}
			v.String = str
		case srcString, srcSheetName:
			v.String = s.str
		case srcBool:
			v.String = strconv.FormatBool(s.b)
		case srcErrorCode:
			v.String = ErrorCodeText(int(s.n))
		case srcColumnNumber:
			v.String = ColToName(int(s.n) - 1)
		default:
			v.String = strconv.FormatInt(s.n, 10)
		}
	case TypeTimestamp:
		switch s.kind {
		case srcNumeric:
			tm, err := excelize.ExcelDateToTime(s.num, c.date1904)
			if err != nil {
				return Value{}, err
			}
			v.Time = wallClockIn(tm, c.spec.Location)
		case srcString:
			tm, err := c.parseTime(s.str)
			if err != nil {
				return Value{}, err
			}
			v.Time = tm
		case srcLong:
			v.Time = time.UnixMilli(s.n).In(c.spec.Location)
		default:
			return Value{}, fmt.Errorf("%w %s to timestamp", errUnsupportedConversion, s.kind)
		}
	}
	if c.spec.Type == TypeJSON {
		v.String = jsonText(v.String)
	}
	return v, nil
}

// jsonText keeps valid JSON documents as they are and encodes anything else
// as a JSON string.
func jsonText(s string) string {
	if json.Valid([]byte(s)) {
		return s
	}
	b, _ := json.Marshal(s)
	return string(b)
}

func (c coercer) parseTime(s string) (time.Time, error) {
	return timefmt.ParseInLocation(s, c.spec.TimestampFormat, c.spec.Location)
}

// convertError applies the convert-error strategy. A constant literal is
// converted into the target type itself.
func (c coercer) convertError(s source, cause error) (Value, error) {
	st := c.spec.OnConvertError
	if st.Kind != StrategyConstant {
		return Value{}, fmt.Errorf("convert error. value=%v: %w", s.display(), cause)
	}
	if !st.HasLiteral {
		return c.null(), nil
	}
	v, err := c.convert(stringSource(st.Literal))
	if err != nil {
		return Value{}, configErrorf(ErrInvalidOption, "constant value convert error. value=%s: %v", st.Literal, err)
	}
	return v, nil
}

// formatError is a numeric_format failure; it bypasses the convert-error
// strategy.
type formatError struct{ format string }

func (e *formatError) Error() string {
	return fmt.Sprintf("illegal String.format for double. numeric_format=%q", e.format)
}

// formatNumber renders a number with a printf-style format, or in its
// shortest form without a trailing ".0".
func formatNumber(v float64, format string) (string, error) {
	if format == "" {
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	s := fmt.Sprintf(format, v)
	if strings.Contains(s, "%!") {
		return "", &formatError{format: format}
	}
	return s, nil
}

// wallClockIn reinterprets the wall clock of t in loc.
func wallClockIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
