// Command chartflow answers questions with chat models and web search and
// turns chartable answers into Plotly figures.
//
// Usage:
//
//	chartflow run conditional_graph "population of the five largest EU countries" --out chart.html
//	chartflow graph conditional_graph
//	chartflow serve --addr :8080
//	chartflow mcp
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
