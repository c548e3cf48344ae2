// Package chartflow provides the provider-neutral message, option and error
// types shared by the chartflow workflow engine and its LLM collaborators.
//
// The package is conventionally imported as ai:
//
//	import ai "github.com/spetersoncode/chartflow"
//
// # Core Interfaces
//
//   - [ChatProvider]: send a conversation and receive a complete response
//   - [Model]: a model identifier bound to the provider that serves it
//
// Use [github.com/spetersoncode/chartflow/client] as the entry point for
// provider access, [github.com/spetersoncode/chartflow/workflow] to build and
// execute step graphs, and [github.com/spetersoncode/chartflow/workflows] for
// the three assembled pipelines.
//
// # Basic Usage
//
//	c := client.New(client.Config{
//	    APIKeys:  client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    Defaults: client.Defaults{Chat: model.GPT41Mini},
//	})
//
//	resp, err := c.Chat(ctx, []ai.Message{
//	    {Role: ai.RoleUser, Content: "What is the capital of France?"},
//	})
//
// # Search-Enabled Generation
//
// Providers that support grounding answer with live web results when the
// request carries [WithWebSearch]. Grounding sources are returned in
// [Response.Citations].
//
//	resp, err := c.Chat(ctx, messages, ai.WithWebSearch())
//
// # Error Handling
//
// Provider errors are categorized so callers can decide whether to retry:
//
//	if ai.IsTransient(err) {
//	    // rate limit, overload, network hiccup
//	}
package chartflow
