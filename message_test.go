package chartflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMessageID(t *testing.T) {
	a := GenerateMessageID()
	b := GenerateMessageID()

	assert.True(t, strings.HasPrefix(a, "msg-"))
	assert.NotEqual(t, a, b)
}

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role Role
	}{
		{NewSystemMessage("s"), RoleSystem},
		{NewUserMessage("u"), RoleUser},
		{NewAssistantMessage("a"), RoleAssistant},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.role, tt.msg.Role)
			assert.NotEmpty(t, tt.msg.ID)
		})
	}
}

func TestUsage_Add(t *testing.T) {
	u := Usage{InputTokens: 3, OutputTokens: 4}.Add(Usage{InputTokens: 1, OutputTokens: 2})
	assert.Equal(t, Usage{InputTokens: 4, OutputTokens: 6}, u)
}

func TestParseProvider(t *testing.T) {
	p, ok := ParseProvider("google")
	assert.True(t, ok)
	assert.Equal(t, ProviderGoogle, p)

	_, ok = ParseProvider("vertex")
	assert.False(t, ok)
}
