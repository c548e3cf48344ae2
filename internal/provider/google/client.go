// Package google adapts the Google GenAI SDK (Gemini API backend) to the
// chartflow provider interfaces, including Google Search grounding.
package google

import (
	"context"
	"strings"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/chartflow"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// Chat sends a conversation and returns a complete response.
// ai.WithWebSearch enables the Google Search grounding tool.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if len(messages) == 0 {
		return nil, ai.ErrEmptyInput
	}
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != nil {
		model = options.Model.String()
	}

	contents, system := convertMessages(options.PrependSystem(messages))
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, buildConfig(options, system))
	if err != nil {
		return nil, wrapError(err)
	}

	return convertResponse(resp), nil
}

func buildConfig(options *ai.Options, system *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	// Grounding and JSON MIME type cannot be combined; grounding wins.
	if options.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if options.ResponseFormat == ai.ResponseFormatJSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func convertResponse(resp *genai.GenerateContentResponse) *ai.Response {
	out := &ai.Response{}
	if resp.UsageMetadata != nil {
		out.Usage = ai.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		return out
	}

	candidate := resp.Candidates[0]
	out.FinishReason = string(candidate.FinishReason)
	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		out.Content = text.String()
	}
	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			out.Citations = append(out.Citations, ai.Citation{Title: chunk.Web.Title, URL: chunk.Web.URI})
		}
	}
	return out
}

// SupportsWebSearch reports that Gemini can ground answers with Google Search.
func (c *Client) SupportsWebSearch() bool { return true }

var _ ai.ChatProvider = (*Client)(nil)
