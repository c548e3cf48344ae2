package chart

import (
	"html/template"
	"io"
)

// PlotlyScriptURL is the Plotly bundle referenced by HTML output.
const PlotlyScriptURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
</head>
<body>
<div id="chart" style="width:100%;height:90vh;"></div>
<script>
var fig = {{.Figure}};
Plotly.newPlot("chart", fig.data, fig.layout, {responsive: true});
</script>
</body>
</html>
`))

// WriteHTML writes a standalone HTML page displaying the figure.
func (f *Figure) WriteHTML(w io.Writer) error {
	return pageTemplate.Execute(w, struct {
		Title  string
		Script string
		Figure *Figure
	}{
		Title:  f.Title,
		Script: PlotlyScriptURL,
		Figure: f,
	})
}
