// Package client provides a unified multi-provider chat client.
//
// The Client wraps provider-specific implementations and provides:
//
//   - Model-centric routing: models know their provider; switching is automatic
//   - Lazy provider construction: only providers that are used need API keys
//   - Automatic retries: exponential backoff for transient errors
//   - Search-enabled generation through [Client.Search]
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    Defaults: client.Defaults{
//	        Chat:   model.GPT41Mini,
//	        Search: model.GPT41Mini,
//	    },
//	})
//
//	resp, err := c.Search(ctx, "Population of the five largest EU countries")
//
// # Retries
//
// Retries are the client's concern. Workflow steps never retry; a transient
// failure that survives the retry budget is returned to the step, which
// either degrades or propagates according to its failure policy.
package client
