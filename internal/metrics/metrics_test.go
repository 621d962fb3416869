package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DisabledOutsideProduction(t *testing.T) {
	for _, env := range []string{"development", "staging", ""} {
		client, err := NewClient(context.Background(), env)
		require.NoError(t, err)
		assert.False(t, client.Enabled(), env)

		// Disabled clients are no-ops and never spawn CloudWatch calls
		client.RecordAPIRequest("/api/v1/render", 200, time.Second)
		client.RecordTokenUsage("gpt-5-mini", 10, 6, 4, 0)
		client.RecordRender(time.Second, 4.5, 1024, false)
		client.RecordGenerationDuration(time.Second, true)
	}

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestClientDimensions(t *testing.T) {
	client := &Client{environment: "production"}
	dims := client.dimensions("Model", "gemini-2.5-flash")
	require.Len(t, dims, 2)
	assert.Equal(t, "Model", *dims[0].Name)
	assert.Equal(t, "gemini-2.5-flash", *dims[0].Value)
	assert.Equal(t, "production", *dims[1].Value)
}

func TestBoolToString(t *testing.T) {
	assert.Equal(t, "true", boolToString(true))
	assert.Equal(t, "false", boolToString(false))
}

func TestSentryMetrics_WithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordAPIRequest(ctx, "/health", 200, time.Millisecond)
		m.RecordAPIRequest(ctx, "/api/v1/render", 500, time.Millisecond)
		m.RecordTokenUsage(ctx, "gpt-5-mini", 10, 6, 4, 2)
		m.RecordGenerationDuration(ctx, time.Second, false)
		m.RecordRender(ctx, 12, 3.5, 200*time.Millisecond)
		m.RecordRender(ctx, 0, 0, 0)
	})
}
