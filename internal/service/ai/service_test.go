package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	for _, msg := range input {
		m.prompts = append(m.prompts, msg.Content)
	}
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestService(t *testing.T, m *fakeChatModel) *Service {
	t.Helper()
	svc, err := NewServiceWithModel(context.Background(), m)
	require.NoError(t, err)
	return svc
}

func TestGenerateTextReturnsContent(t *testing.T) {
	m := &fakeChatModel{reply: "田中（就労選択支援員）: 始めます"}
	svc := newTestService(t, m)

	text, err := svc.GenerateText(context.Background(), "プロンプト {中括弧} 付き")
	require.NoError(t, err)
	assert.Equal(t, "田中（就労選択支援員）: 始めます", text)

	require.Len(t, m.prompts, 1)
	assert.Equal(t, "プロンプト {中括弧} 付き", m.prompts[0])
}

func TestGenerateTextEmptyResponse(t *testing.T) {
	svc := newTestService(t, &fakeChatModel{reply: "  \n "})

	_, err := svc.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, IsResponse(err))
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTextProviderFailure(t *testing.T) {
	svc := newTestService(t, &fakeChatModel{err: errors.New("status 500")})

	_, err := svc.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, IsResponse(err))
	assert.False(t, IsTimeout(err))
}

func TestGenerateTextTimeout(t *testing.T) {
	svc := newTestService(t, &fakeChatModel{block: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.GenerateText(ctx, "p")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestClassifyPassesCancellationThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := classify(ctx, context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))
	assert.False(t, IsResponse(err))
}

func TestGeneratorFunc(t *testing.T) {
	var gen TextGenerator = GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})

	text, err := gen.GenerateText(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo:x", text)
}
