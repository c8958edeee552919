package xlparse

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// dataFormat is resolved per target: the format string for text targets,
// the numeric id otherwise.
type dataFormat struct {
	id     int
	format string
}

// attrTable maps attribute keys of one metadata source to getters. Getter
// results are nil, string, int64, bool, Color, dataFormat or
// json.RawMessage.
type attrTable[S any] struct {
	name    string
	getters map[string]func(S) any
	hidden  map[string]bool // not part of the all-keys map
}

func (t attrTable[S]) has(key string) bool {
	_, ok := t.getters[key]
	return ok
}

// keys returns the all-keys set in sorted order.
func (t attrTable[S]) keys() []string {
	out := make([]string, 0, len(t.getters))
	for k := range t.getters {
		if !t.hidden[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (t attrTable[S]) unknown(key string) error {
	all := make([]string, 0, len(t.getters))
	for k := range t.getters {
		all = append(all, k)
	}
	sort.Strings(all)
	return configErrorf(ErrUnknownAttribute, "unsupported %s key=%s. expected=%v", t.name, key, all)
}

func (t attrTable[S]) get(src S, key string) (any, error) {
	g, ok := t.getters[key]
	if !ok {
		return nil, t.unknown(key)
	}
	return g(src), nil
}

// project returns the single requested key, or every key (configured
// order, else sorted) serialised as a JSON object.
func (t attrTable[S]) project(src S, spec *ColumnSpec, c coercer) (Value, error) {
	if spec.Value.HasSuffix {
		v, err := t.get(src, spec.Value.Suffix)
		if err != nil {
			return Value{}, err
		}
		return c.coerce(attrSource(v, c.target()))
	}
	keys := spec.AttributeNames
	if !spec.HasAttributeNames {
		keys = t.keys()
	}
	text, err := t.encode(src, keys)
	if err != nil {
		return Value{}, err
	}
	return c.coerce(stringSource(text))
}

// encode writes an ordered JSON object over keys.
func (t attrTable[S]) encode(src S, keys []string) (string, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range keys {
		v, err := t.get(src, k)
		if err != nil {
			return "", err
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(jsonAttr(v))
		if err != nil {
			return "", fmt.Errorf("encode %s key=%s: %w", t.name, k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// jsonAttr converts a getter result for map output.
func jsonAttr(v any) any {
	switch a := v.(type) {
	case Color:
		if !a.Set {
			return nil
		}
		return a.Hex()
	case dataFormat:
		return a.format
	}
	return v
}

// attrSource converts a getter result for single-key output.
func attrSource(v any, target TargetType) source {
	switch a := v.(type) {
	case nil:
		return blankSource()
	case string:
		return stringSource(a)
	case int64:
		return longSource(a)
	case bool:
		return boolSource(a)
	case Color:
		if !a.Set {
			return blankSource()
		}
		if target == TypeString {
			return stringSource(a.Hex())
		}
		return longSource(int64(a.RGB))
	case dataFormat:
		if target == TypeString {
			return stringSource(a.format)
		}
		return longSource(int64(a.id))
	case json.RawMessage:
		return stringSource(string(a))
	}
	return stringSource(fmt.Sprint(v))
}

var styleAttrs = attrTable[*StyleInfo]{
	name: "cell_style",
	getters: map[string]func(*StyleInfo) any{
		"alignment":          func(s *StyleInfo) any { return int64(s.Alignment) },
		"vertical_alignment": func(s *StyleInfo) any { return int64(s.VerticalAlignment) },
		"wrap_text":          func(s *StyleInfo) any { return s.WrapText },
		"indention":          func(s *StyleInfo) any { return int64(s.Indent) },
		"rotation":           func(s *StyleInfo) any { return int64(s.Rotation) },
		"border_top":         func(s *StyleInfo) any { return int64(s.BorderTop) },
		"border_bottom":      func(s *StyleInfo) any { return int64(s.BorderBottom) },
		"border_left":        func(s *StyleInfo) any { return int64(s.BorderLeft) },
		"border_right":       func(s *StyleInfo) any { return int64(s.BorderRight) },
		"border": func(s *StyleInfo) any {
			return int64(s.BorderTop)<<24 | int64(s.BorderBottom)<<16 | int64(s.BorderLeft)<<8 | int64(s.BorderRight)
		},
		"top_border_color":      func(s *StyleInfo) any { return s.TopBorderColor },
		"bottom_border_color":   func(s *StyleInfo) any { return s.BottomBorderColor },
		"left_border_color":     func(s *StyleInfo) any { return s.LeftBorderColor },
		"right_border_color":    func(s *StyleInfo) any { return s.RightBorderColor },
		"fill_pattern":          func(s *StyleInfo) any { return int64(s.FillPattern) },
		"fill_foreground_color": func(s *StyleInfo) any { return s.FillForeground },
		"fill_background_color": func(s *StyleInfo) any { return s.FillBackground },
		"data_format":           func(s *StyleInfo) any { return dataFormat{id: s.DataFormat, format: s.DataFormatString} },
		"hidden":                func(s *StyleInfo) any { return s.Hidden },
		"locked":                func(s *StyleInfo) any { return s.Locked },
	},
}

var fontAttrs = attrTable[*FontInfo]{
	name: "cell_font",
	getters: map[string]func(*FontInfo) any{
		"name":             func(f *FontInfo) any { return f.Name },
		"height":           func(f *FontInfo) any { return int64(f.Height()) },
		"height_in_points": func(f *FontInfo) any { return int64(f.HeightInPoints) },
		"bold":             func(f *FontInfo) any { return f.Bold },
		"italic":           func(f *FontInfo) any { return f.Italic },
		"strikeout":        func(f *FontInfo) any { return f.Strikeout },
		"underline":        func(f *FontInfo) any { return int64(f.Underline) },
		"type_offset":      func(f *FontInfo) any { return int64(f.TypeOffset) },
		"char_set":         func(f *FontInfo) any { return int64(f.CharSet) },
		"color":            func(f *FontInfo) any { return f.Color },
	},
}

var anchorAttrs = attrTable[*ClientAnchor]{
	name: "client_anchor",
	getters: map[string]func(*ClientAnchor) any{
		"anchor_type": func(a *ClientAnchor) any { return int64(a.AnchorType) },
		"col1":        func(a *ClientAnchor) any { return int64(a.Col1) },
		"col2":        func(a *ClientAnchor) any { return int64(a.Col2) },
		"dx1":         func(a *ClientAnchor) any { return int64(a.Dx1) },
		"dx2":         func(a *ClientAnchor) any { return int64(a.Dx2) },
		"dy1":         func(a *ClientAnchor) any { return int64(a.Dy1) },
		"dy2":         func(a *ClientAnchor) any { return int64(a.Dy2) },
		"row1":        func(a *ClientAnchor) any { return int64(a.Row1) },
		"row2":        func(a *ClientAnchor) any { return int64(a.Row2) },
	},
}

var commentAttrs = newCommentAttrs()

func newCommentAttrs() attrTable[*CommentInfo] {
	t := attrTable[*CommentInfo]{
		name: "cell_comment",
		getters: map[string]func(*CommentInfo) any{
			"author":     func(c *CommentInfo) any { return c.Author },
			"column":     func(c *CommentInfo) any { return int64(c.Col) },
			"row":        func(c *CommentInfo) any { return int64(c.Row) },
			"is_visible": func(c *CommentInfo) any { return c.Visible },
			"string":     func(c *CommentInfo) any { return c.Text },
			"client_anchor": func(c *CommentInfo) any {
				if c.Anchor == nil {
					return nil
				}
				s, err := anchorAttrs.encode(c.Anchor, anchorAttrs.keys())
				if err != nil {
					return nil
				}
				return json.RawMessage(s)
			},
		},
		hidden: map[string]bool{"client_anchor": true},
	}
	for _, k := range anchorAttrs.keys() {
		get := anchorAttrs.getters[k]
		t.getters["client_anchor."+k] = func(c *CommentInfo) any {
			if c.Anchor == nil {
				return nil
			}
			return get(c.Anchor)
		}
	}
	return t
}

// AttributeKeys returns the sorted all-keys set of an attribute value kind.
func AttributeKeys(k ValueKind) []string {
	switch k {
	case KindCellStyle:
		return styleAttrs.keys()
	case KindCellFont:
		return fontAttrs.keys()
	case KindCellComment:
		return commentAttrs.keys()
	}
	return nil
}

// checkAttributeKeys rejects unknown suffix or attribute_name keys.
func checkAttributeKeys(spec *ColumnSpec) error {
	var has func(string) bool
	var unknown func(string) error
	switch spec.Value.Kind {
	case KindCellStyle:
		has, unknown = styleAttrs.has, styleAttrs.unknown
	case KindCellFont:
		has, unknown = fontAttrs.has, fontAttrs.unknown
	case KindCellComment:
		has, unknown = commentAttrs.has, commentAttrs.unknown
	default:
		return nil
	}
	if spec.Value.HasSuffix && !has(spec.Value.Suffix) {
		return unknown(spec.Value.Suffix)
	}
	for _, k := range spec.AttributeNames {
		if !has(k) {
			return unknown(k)
		}
	}
	return nil
}

// projectAttribute reads the metadata source of a cell and projects it.
// A cell without a comment yields null.
func projectAttribute(g Grid, spec *ColumnSpec, c coercer, sheet string, row, col int) (Value, error) {
	switch spec.Value.Kind {
	case KindCellStyle, KindCellFont:
		st, err := g.Style(sheet, row, col)
		if err != nil {
			return Value{}, err
		}
		if st == nil {
			return c.null(), nil
		}
		if spec.Value.Kind == KindCellFont {
			return fontAttrs.project(&st.Font, spec, c)
		}
		return styleAttrs.project(st, spec, c)
	case KindCellComment:
		cm, err := g.Comment(sheet, row, col)
		if err != nil {
			return Value{}, err
		}
		if cm == nil {
			return c.null(), nil
		}
		return commentAttrs.project(cm, spec, c)
	}
	return Value{}, fmt.Errorf("value=%s is not an attribute", spec.Value)
}
