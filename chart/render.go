package chart

import (
	"errors"
	"fmt"
)

// NoDataText is the annotation of a figure rendered from unusable data.
const NoDataText = "No structured data found for visualization"

// yAxisSeries titles the value axis of multi-series charts.
const yAxisSeries = "Value"

// Render builds a figure of the given kind from formatted data, titled with
// title. Columns are chosen as described in [ParseTable]. Render never
// panics and never fails: unusable data yields a placeholder annotated with
// NoDataText, and any other failure yields a placeholder describing it.
func Render(kind Kind, formatted, title string, selected []string) (fig *Figure) {
	defer func() {
		if r := recover(); r != nil {
			fig = errorFigure(kind, title, fmt.Errorf("%v", r))
		}
	}()

	t, err := ParseTable(formatted, selected)
	if errors.Is(err, ErrNoStructuredData) {
		return Placeholder(title, NoDataText)
	}
	if err != nil {
		return errorFigure(kind, title, err)
	}

	switch kind {
	case KindStackedBar:
		return multiSeries(t, title, BarModeStack)
	case KindMultiBar:
		return multiSeries(t, title, BarModeGroup)
	case KindPie:
		return &Figure{
			Title:  title,
			Traces: []Trace{{Type: TracePie, Labels: t.labels(0), Values: t.numbers(1)}},
		}
	case KindLine:
		return xy(t, title, Trace{Type: TraceScatter, Mode: "lines+markers", X: asAny(t.labels(0)), Values: t.numbers(1)})
	case KindScatter:
		return xy(t, title, Trace{Type: TraceScatter, Mode: "markers", X: floatsAsAny(t.numbers(0)), Values: t.numbers(1)})
	default:
		return bar(t, title)
	}
}

func errorFigure(kind Kind, title string, err error) *Figure {
	return Placeholder(title, fmt.Sprintf("Error creating %s: %v", kind, err))
}

func xy(t *Table, title string, trace Trace) *Figure {
	return &Figure{
		Title:      title,
		XAxisTitle: t.Columns[0],
		YAxisTitle: t.Columns[1],
		Traces:     []Trace{trace},
	}
}

func bar(t *Table, title string) *Figure {
	return xy(t, title, Trace{Type: TraceBar, X: asAny(t.labels(0)), Values: t.numbers(1)})
}

// multiSeries draws one bar series per column after the first. Fewer than
// three columns fall back to a single bar series.
func multiSeries(t *Table, title, mode string) *Figure {
	if len(t.Columns) < 3 {
		return bar(t, title)
	}
	categories := asAny(t.labels(0))
	fig := &Figure{
		Title:      title,
		XAxisTitle: t.Columns[0],
		YAxisTitle: yAxisSeries,
		BarMode:    mode,
	}
	for c := 1; c < len(t.Columns); c++ {
		fig.Traces = append(fig.Traces, Trace{
			Type:   TraceBar,
			Name:   t.Columns[c],
			X:      categories,
			Values: t.numbers(c),
		})
	}
	return fig
}

func asAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func floatsAsAny(in []float64) []any {
	out := make([]any, len(in))
	for i, f := range in {
		out[i] = f
	}
	return out
}
