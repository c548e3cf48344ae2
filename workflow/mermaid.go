package workflow

import (
	"fmt"
	"strings"
)

// Mermaid renders the compiled graph as a Mermaid flowchart. The entry
// step is drawn as a stadium and the End marker as a circle.
func (e *Executor[S]) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	usesEnd := false
	for _, name := range e.order {
		id := sanitizeMermaidID(name)
		opener, closer := "[", "]"
		if name == e.entry {
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, name, closer)

		out, ok := e.edges[name]
		if !ok {
			continue
		}
		if out.branch == nil {
			usesEnd = usesEnd || out.to == End
			fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeMermaidID(out.to))
			continue
		}

		label := out.branch.Label
		if label == "" {
			label = "true"
		}
		label = strings.ReplaceAll(label, "\"", "'")
		usesEnd = usesEnd || out.branch.Then == End || out.branch.Else == End
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, label, sanitizeMermaidID(out.branch.Then))
		fmt.Fprintf(&sb, "    %s -- \"else\" --> %s\n", id, sanitizeMermaidID(out.branch.Else))
	}

	if usesEnd {
		fmt.Fprintf(&sb, "    %s((\"END\"))\n", sanitizeMermaidID(End))
	}
	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
