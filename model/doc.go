// Package model provides chat model identifiers for the supported providers.
//
// Models know their provider, which lets the client route requests without
// extra configuration:
//
//	c := client.New(client.Config{
//	    APIKeys:  client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    Defaults: client.Defaults{Chat: model.GPT41Mini, Search: model.GPT41Mini},
//	})
//
//	// Override per request (routes to Gemini)
//	resp, err := c.Chat(ctx, messages, ai.WithModel(model.Gemini25Flash))
//
// Models loaded from a configuration file are built with [New] or [Parse].
package model
