package xlparse

import (
	"fmt"
	"sort"
	"strings"
)

// ValueKind selects what an output column's value is derived from.
type ValueKind int

const (
	KindCellValue ValueKind = iota
	KindCellFormula
	KindCellStyle
	KindCellFont
	KindCellComment
	KindCellType
	KindCellCachedType
	KindSheetName
	KindRowNumber
	KindColumnNumber
	KindConstant
)

var valueKindNames = map[ValueKind]string{
	KindCellValue:      "cell_value",
	KindCellFormula:    "cell_formula",
	KindCellStyle:      "cell_style",
	KindCellFont:       "cell_font",
	KindCellComment:    "cell_comment",
	KindCellType:       "cell_type",
	KindCellCachedType: "cell_cached_type",
	KindSheetName:      "sheet_name",
	KindRowNumber:      "row_number",
	KindColumnNumber:   "column_number",
	KindConstant:       "constant",
}

// String returns the configuration name of the kind.
func (k ValueKind) String() string {
	if s, ok := valueKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// UsesCell reports whether the kind takes part in index resolution under
// the given orientation. Row and column numbers become cell-addressed when
// they lie on the scanning axis.
func (k ValueKind) UsesCell(o Orientation) bool {
	switch k {
	case KindCellValue, KindCellFormula, KindCellStyle, KindCellFont,
		KindCellComment, KindCellType, KindCellCachedType:
		return true
	case KindRowNumber:
		return o == OrientationColumn
	case KindColumnNumber:
		return o == OrientationRow
	}
	return false
}

// Advances reports whether a column of this kind without an address
// directive moves the running index forward.
func (k ValueKind) Advances() bool {
	return k == KindCellValue || k == KindCellFormula
}

// IsAttribute reports whether values come from Attribute Projection.
func (k ValueKind) IsAttribute() bool {
	return k == KindCellStyle || k == KindCellFont || k == KindCellComment
}

// ValueSpec is a parsed "kind[.suffix]" value directive.
type ValueSpec struct {
	Kind      ValueKind
	Suffix    string
	HasSuffix bool
}

// ParseValueSpec parses a value directive. An empty string means cell_value.
// The suffix is trimmed except for constants, whose literal is kept verbatim;
// a constant without suffix stands for null.
func ParseValueSpec(s string) (ValueSpec, error) {
	if strings.TrimSpace(s) == "" {
		return ValueSpec{Kind: KindCellValue}, nil
	}
	head, suffix, hasSuffix := strings.Cut(s, ".")
	head = strings.ToLower(strings.TrimSpace(head))

	for k, name := range valueKindNames {
		if name != head {
			continue
		}
		spec := ValueSpec{Kind: k, Suffix: suffix, HasSuffix: hasSuffix}
		if k != KindConstant {
			spec.Suffix = strings.TrimSpace(suffix)
			spec.HasSuffix = hasSuffix && spec.Suffix != ""
		}
		return spec, nil
	}

	names := make([]string, 0, len(valueKindNames))
	for _, name := range valueKindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return ValueSpec{}, configErrorf(ErrInvalidOption, "illegal value=%q. expected=%v", s, names)
}

// String formats the directive back to its configuration form.
func (v ValueSpec) String() string {
	if v.HasSuffix {
		return v.Kind.String() + "." + v.Suffix
	}
	return v.Kind.String()
}

// TargetType is the output column type.
type TargetType int

const (
	TypeBoolean TargetType = iota
	TypeLong
	TypeDouble
	TypeString
	TypeTimestamp
	TypeJSON
)

var targetTypeNames = []string{"boolean", "long", "double", "string", "timestamp", "json"}

// ParseTargetType parses an output column type name.
func ParseTargetType(s string) (TargetType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range targetTypeNames {
		if name == s {
			return TargetType(i), nil
		}
	}
	return 0, configErrorf(ErrInvalidOption, "illegal type=%q. expected=%v", s, targetTypeNames)
}

// String returns the configuration name of the type.
func (t TargetType) String() string {
	if int(t) >= 0 && int(t) < len(targetTypeNames) {
		return targetTypeNames[t]
	}
	return fmt.Sprintf("TargetType(%d)", int(t))
}

// coercionTarget maps json onto string; json columns carry text.
func (t TargetType) coercionTarget() TargetType {
	if t == TypeJSON {
		return TypeString
	}
	return t
}
