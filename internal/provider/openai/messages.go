package openai

import (
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	ai "github.com/spetersoncode/chartflow"
)

func convertMessages(messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case ai.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// flattenForResponses splits a conversation into Responses API instructions
// (all system content) and a single input string. A lone user turn is sent
// verbatim; longer histories are rendered as role-prefixed lines.
func flattenForResponses(messages []ai.Message) (instructions, input string) {
	var system []string
	var turns []ai.Message
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == ai.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}

	instructions = strings.Join(system, "\n\n")
	if len(turns) == 1 {
		return instructions, turns[0].Content
	}

	var b strings.Builder
	for i, msg := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return instructions, b.String()
}

func extractCitations(resp *responses.Response) []ai.Citation {
	var citations []ai.Citation
	seen := make(map[string]bool)
	for _, item := range resp.Output {
		for _, content := range item.Content {
			for _, ann := range content.Annotations {
				if ann.Type != "url_citation" || ann.URL == "" || seen[ann.URL] {
					continue
				}
				seen[ann.URL] = true
				citations = append(citations, ai.Citation{Title: ann.Title, URL: ann.URL})
			}
		}
	}
	return citations
}
