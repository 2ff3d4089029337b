package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkbay/linkbay-ai/services/providers"
)

func TestChatReturnsCannedResponse(t *testing.T) {
	p := New("custom fallback message")

	resp, err := p.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom fallback message", resp.Content)
	assert.Equal(t, "local", resp.Provider)
	assert.Equal(t, 0, resp.TokensUsed)
}

func TestDefaultContent(t *testing.T) {
	p := New("")

	resp, err := p.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
}

func TestStreamSingleFragment(t *testing.T) {
	p := New("fallback")

	stream, err := p.Stream(context.Background(), nil, nil)
	require.NoError(t, err)

	var got []string
	for fragment := range stream {
		got = append(got, fragment)
	}
	assert.Equal(t, []string{"fallback"}, got)
}

func TestAlwaysAvailable(t *testing.T) {
	p := New("")
	assert.True(t, p.IsAvailable(context.Background()))
	assert.Equal(t, string(providers.TypeLocal), p.Name())
}
