package chart

import (
	"encoding/json"
	"slices"
)

// Trace types.
const (
	TraceBar     = "bar"
	TracePie     = "pie"
	TraceScatter = "scatter"
)

// Bar modes for multi-series bar charts.
const (
	BarModeStack = "stack"
	BarModeGroup = "group"
)

// Trace is one data series. Bar and scatter traces use X and Values as the
// horizontal and vertical coordinates; pie traces use Labels and Values.
type Trace struct {
	Type   string
	Name   string
	Mode   string
	Labels []string
	X      []any
	Values []float64
}

// Annotation is free text placed at the centre of the plotting area.
type Annotation struct {
	Text string
}

// Figure is a rendered chart.
type Figure struct {
	Title       string
	XAxisTitle  string
	YAxisTitle  string
	BarMode     string
	Traces      []Trace
	Annotations []Annotation
}

// Placeholder returns a figure with no data and a single annotation.
func Placeholder(title, text string) *Figure {
	return &Figure{Title: title, Annotations: []Annotation{{Text: text}}}
}

// IsPlaceholder reports whether f carries only an annotation.
func (f *Figure) IsPlaceholder() bool {
	return f != nil && len(f.Traces) == 0 && len(f.Annotations) > 0
}

// Clone returns a deep copy of f.
func (f *Figure) Clone() *Figure {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Annotations = slices.Clone(f.Annotations)
	cp.Traces = make([]Trace, len(f.Traces))
	for i, t := range f.Traces {
		t.Labels = slices.Clone(t.Labels)
		t.X = slices.Clone(t.X)
		t.Values = slices.Clone(t.Values)
		cp.Traces[i] = t
	}
	if f.Traces == nil {
		cp.Traces = nil
	}
	return &cp
}

type plotlyText struct {
	Text string `json:"text"`
}

type plotlyAxis struct {
	Title *plotlyText `json:"title,omitempty"`
}

type plotlyFont struct {
	Size int `json:"size"`
}

type plotlyAnnotation struct {
	Text      string     `json:"text"`
	XRef      string     `json:"xref"`
	YRef      string     `json:"yref"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	ShowArrow bool       `json:"showarrow"`
	Font      plotlyFont `json:"font"`
}

type plotlyLayout struct {
	Title       *plotlyText        `json:"title,omitempty"`
	XAxis       *plotlyAxis        `json:"xaxis,omitempty"`
	YAxis       *plotlyAxis        `json:"yaxis,omitempty"`
	BarMode     string             `json:"barmode,omitempty"`
	Annotations []plotlyAnnotation `json:"annotations,omitempty"`
}

type plotlyTrace struct {
	Type   string    `json:"type"`
	Name   string    `json:"name,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values,omitempty"`
	X      []any     `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
}

type plotlyFigure struct {
	Data   []plotlyTrace `json:"data"`
	Layout plotlyLayout  `json:"layout"`
}

// MarshalJSON encodes the figure as a Plotly document with data and layout.
func (f *Figure) MarshalJSON() ([]byte, error) {
	doc := plotlyFigure{Data: make([]plotlyTrace, 0, len(f.Traces))}
	for _, t := range f.Traces {
		pt := plotlyTrace{Type: t.Type, Name: t.Name, Mode: t.Mode}
		if t.Type == TracePie {
			pt.Labels = t.Labels
			pt.Values = t.Values
		} else {
			pt.X = t.X
			pt.Y = t.Values
		}
		doc.Data = append(doc.Data, pt)
	}

	doc.Layout.Title = text(f.Title)
	if t := text(f.XAxisTitle); t != nil {
		doc.Layout.XAxis = &plotlyAxis{Title: t}
	}
	if t := text(f.YAxisTitle); t != nil {
		doc.Layout.YAxis = &plotlyAxis{Title: t}
	}
	doc.Layout.BarMode = f.BarMode
	for _, a := range f.Annotations {
		doc.Layout.Annotations = append(doc.Layout.Annotations, plotlyAnnotation{
			Text: a.Text, XRef: "paper", YRef: "paper", X: 0.5, Y: 0.5,
			Font: plotlyFont{Size: 16},
		})
	}
	return json.Marshal(doc)
}

func text(s string) *plotlyText {
	if s == "" {
		return nil
	}
	return &plotlyText{Text: s}
}

// UnmarshalJSON decodes a Plotly document produced by MarshalJSON.
func (f *Figure) UnmarshalJSON(data []byte) error {
	var doc plotlyFigure
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*f = Figure{BarMode: doc.Layout.BarMode}
	if doc.Layout.Title != nil {
		f.Title = doc.Layout.Title.Text
	}
	if doc.Layout.XAxis != nil && doc.Layout.XAxis.Title != nil {
		f.XAxisTitle = doc.Layout.XAxis.Title.Text
	}
	if doc.Layout.YAxis != nil && doc.Layout.YAxis.Title != nil {
		f.YAxisTitle = doc.Layout.YAxis.Title.Text
	}
	for _, pt := range doc.Data {
		t := Trace{Type: pt.Type, Name: pt.Name, Mode: pt.Mode}
		if pt.Type == TracePie {
			t.Labels = pt.Labels
			t.Values = pt.Values
		} else {
			t.X = pt.X
			t.Values = pt.Y
		}
		f.Traces = append(f.Traces, t)
	}
	for _, a := range doc.Layout.Annotations {
		f.Annotations = append(f.Annotations, Annotation{Text: a.Text})
	}
	return nil
}
