package chart

import "strings"

// Kind identifies a chart type by its wire name.
type Kind string

const (
	KindBar        Kind = "bar_graph"
	KindStackedBar Kind = "stacked_bar_chart"
	KindPie        Kind = "pie_chart"
	KindLine       Kind = "line_graph"
	KindScatter    Kind = "scatterplot"
	KindMultiBar   Kind = "multi_bar_graph"
)

// Kinds lists every supported chart type.
func Kinds() []Kind {
	return []Kind{KindBar, KindStackedBar, KindPie, KindLine, KindScatter, KindMultiBar}
}

// ParseKind normalizes a chart type name: surrounding whitespace and quotes
// are removed, case is folded and inner spaces or hyphens become
// underscores. The result may still be invalid; see [Kind.Valid].
func ParseKind(s string) Kind {
	s = strings.Trim(strings.TrimSpace(s), "\"'`")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return Kind(s)
}

// Valid reports whether k is a supported chart type.
func (k Kind) Valid() bool {
	switch k {
	case KindBar, KindStackedBar, KindPie, KindLine, KindScatter, KindMultiBar:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
