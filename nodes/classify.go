package nodes

import (
	"context"

	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/chat"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// decisionKey holds the verdict in the classifier's reply.
const decisionKey = "can_generate_graph"

// Classify decides whether the query can be answered with a chart. Any
// failure, including an unreadable reply, yields state.DecisionNo.
type Classify struct {
	client  chat.Client
	prompts *prompt.Loader
	opts    []ai.Option
}

// NewClassify creates the classification step. opts typically select a
// small, deterministic model.
func NewClassify(client chat.Client, prompts *prompt.Loader, opts ...ai.Option) *Classify {
	return &Classify{client: client, prompts: prompts, opts: opts}
}

func (c *Classify) Name() string { return NameQueryFiltering }

func (c *Classify) Contract() workflow.Contract {
	return contract(workflow.FailureRecoverable,
		reads(state.FieldUserQuery),
		state.FieldCanGenerateGraph)
}

func (c *Classify) Run(ctx context.Context, s *state.State) error {
	logger := logging.FromContext(ctx)
	system := c.prompts.Render(prompt.GraphClassification, prompt.Vars{UserQuery: s.UserQuery})
	messages := []ai.Message{
		ai.NewSystemMessage(system),
		ai.NewUserMessage("User Query: " + s.UserQuery),
	}

	resp, err := c.client.Chat(ctx, messages, withJSON(c.opts)...)
	if err != nil {
		logger.Error("graph classification failed", "error", err)
		s.CanGenerateGraph = state.DecisionNo
		return nil
	}

	decision, ok := ParseClassification(resp.Content)
	if !ok {
		logger.Error("failed to parse classification reply", "content", resp.Content)
	}
	s.CanGenerateGraph = decision
	logger.Info("query classification", "can_generate_graph", decision)
	return nil
}

// ParseClassification reads the verdict from a classifier reply. The
// second result is false when the reply is not a JSON object; the decision
// is then state.DecisionNo.
func ParseClassification(content string) (state.Decision, bool) {
	raw := chart.StripCodeFence(content)
	if !gjson.Valid(raw) {
		return state.DecisionNo, false
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return state.DecisionNo, false
	}
	v := doc.Get(decisionKey)
	switch v.Type {
	case gjson.True:
		return state.DecisionYes, true
	case gjson.String:
		return state.ParseDecision(v.Str), true
	default:
		return state.DecisionNo, true
	}
}
