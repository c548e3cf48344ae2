package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/event"
	"github.com/spetersoncode/chartflow/internal/service"
)

// output controls how a finished run is printed.
type output struct {
	plain      bool
	showSearch bool
	asJSON     bool
	out        string
}

func (o output) print(w io.Writer, res *service.Result) error {
	st := res.State
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if o.showSearch && st.SearchResults != "" {
		if err := o.markdown(w, "## Search results\n\n"+st.SearchResults); err != nil {
			return err
		}
	}
	if st.Response != "" {
		if err := o.markdown(w, st.Response); err != nil {
			return err
		}
	}

	if st.Chart == nil {
		return nil
	}
	if st.Chart.IsPlaceholder() {
		fmt.Fprintf(w, "No chart: %s\n", placeholderText(st.Chart))
	} else {
		fmt.Fprintf(w, "Chart: %s with %d series\n", st.SelectedChartType, len(st.Chart.Traces))
	}
	if o.out == "" {
		fmt.Fprintln(w, "Use --out chart.html to save it.")
		return nil
	}
	if err := writeChart(o.out, st.Chart); err != nil {
		return err
	}
	fmt.Fprintf(w, "Chart written to %s\n", o.out)
	return nil
}

func (o output) markdown(w io.Writer, text string) error {
	if o.plain {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	rendered, err := renderMarkdown(text)
	if err != nil {
		// Unrenderable Markdown still prints.
		_, err = fmt.Fprintln(w, text)
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func placeholderText(fig *chart.Figure) string {
	if len(fig.Annotations) == 0 {
		return chart.NoDataText
	}
	return fig.Annotations[0].Text
}

// writeChart saves fig as a Plotly JSON document or an HTML page,
// chosen by the file extension.
func writeChart(path string, fig *chart.Figure) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		raw, err := json.MarshalIndent(fig, "", "  ")
		if err != nil {
			return fmt.Errorf("encode chart: %w", err)
		}
		data = append(raw, '\n')
	case ".html", ".htm":
		var sb strings.Builder
		if err := fig.WriteHTML(&sb); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		data = []byte(sb.String())
	default:
		return fmt.Errorf("unsupported chart file extension %q (want .json or .html)", ext)
	}
	return os.WriteFile(path, data, 0o644)
}

func printEvent(w io.Writer, ev event.Event) {
	switch ev.Type {
	case event.RunStart:
		fmt.Fprintf(w, "▶ %s (run %s)\n", ev.Workflow, ev.RunID)
	case event.StepStart:
		fmt.Fprintf(w, "  → %s\n", ev.StepName)
	case event.StepEnd:
		fmt.Fprintf(w, "  ✓ %s (%s)\n", ev.StepName, ev.Duration.Round(time.Millisecond))
	case event.RouteSelected:
		fmt.Fprintf(w, "  ↳ %s routed to %s\n", ev.StepName, ev.RouteName)
	case event.RunEnd:
		fmt.Fprintf(w, "■ %s in %s\n", ev.Message, ev.Duration.Round(time.Millisecond))
	case event.RunError:
		fmt.Fprintf(w, "✗ %s: %v\n", ev.Message, ev.Error)
	}
}
