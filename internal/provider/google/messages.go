package google

import (
	"errors"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/chartflow"
)

// convertMessages maps turns to Gemini contents and gathers system
// messages into a single system instruction.
func convertMessages(messages []ai.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemParts []*genai.Part

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: msg.Content})
		case ai.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: msg.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}

	if len(systemParts) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{Parts: systemParts}
}

// wrapError categorizes Gemini API errors. genai.APIError carries no
// headers, so no Retry-After is available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	return ai.NewStatusError(err.Error(), apiErr.Code, 0, err)
}
