// Package openai adapts the official OpenAI Go SDK to the chartflow
// provider interfaces. Chat uses Chat Completions; search-enabled
// requests go through the Responses API with the web_search_preview tool.
package openai
