package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/scholar/internal/adapter/llm"
	"github.com/xiaot623/scholar/internal/config"
	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/frame"
	"github.com/xiaot623/scholar/internal/policy"
	"github.com/xiaot623/scholar/internal/repository"
	"github.com/xiaot623/scholar/internal/testutil"
)

type reply struct {
	content string
	err     error
}

// scriptedLLM returns replies in order and repeats the last one.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []reply
	calls   int
}

func (s *scriptedLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &llm.ChatCompletionResponse{Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: r.content}}}}, nil
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads map[string][]string
}

func (b *recordingBroadcaster) Broadcast(conversationID string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.payloads == nil {
		b.payloads = make(map[string][]string)
	}
	b.payloads[conversationID] = append(b.payloads[conversationID], string(data))
}

type fixture struct {
	svc         *Service
	store       *repository.SQLiteStore
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T, client llm.LLMClient) *fixture {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	store := testutil.NewTestSQLiteStore(t)
	b := &recordingBroadcaster{}
	cfg := &config.Config{LLMModel: "test-model", HistoryLimit: 10}
	return &fixture{
		svc:         New(store, client, nil, engine, b, cfg, nil),
		store:       store,
		broadcaster: b,
	}
}

func collect(frames *[]frame.Frame) Emitter {
	return func(f frame.Frame) error {
		*frames = append(*frames, f)
		return nil
	}
}

func frameTypes(frames []frame.Frame) []frame.Type {
	types := make([]frame.Type, len(frames))
	for i, f := range frames {
		types[i] = f.Type()
	}
	return types
}

func request(message string) domain.AgentRequest {
	return domain.AgentRequest{ConversationHash: "conv-1", CustomerMessage: message}
}

func TestStreamRequestEmitsFullSequence(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	ctx := context.Background()

	var frames []frame.Frame
	require.NoError(t, fx.svc.StreamRequest(ctx, request("Find papers on transformers"), collect(&frames)))

	assert.Equal(t, []frame.Type{
		frame.TypeStatus, frame.TypeStatus,
		frame.TypeProgress, frame.TypeProgress, frame.TypeProgress, frame.TypeProgress, frame.TypeProgress,
		frame.TypeResponse, frame.TypeComplete,
	}, frameTypes(frames))

	first := frames[0].(frame.Status)
	assert.Equal(t, "Starting analysis...", first.Message)
	require.NotEmpty(t, first.ProcessID)

	for i, f := range frames[2:7] {
		p := f.(frame.Progress)
		assert.Equal(t, i+1, p.Step)
		assert.Equal(t, 5, p.TotalSteps)
	}
	assert.Equal(t, "Research completed - papers analyzed and knowledge updated", frames[6].(frame.Progress).Message)

	resp := frames[7].(frame.Response)
	assert.Equal(t, "research", resp.Intent)
	assert.Equal(t, []string{"Extract research topic", "Search for papers", "Analyze findings", "Synthesize results"}, resp.Plan)
	assert.Contains(t, resp.Response, "[MOCK]")

	complete := frames[8].(frame.Complete)
	assert.Equal(t, first.ProcessID, complete.ProcessID)

	run, err := fx.store.GetRun(ctx, first.ProcessID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, domain.IntentResearch, run.Intent)

	events, err := fx.store.GetEvents(ctx, first.ProcessID, 0, nil, 0)
	require.NoError(t, err)
	assert.Len(t, events, len(frames))
	assert.Len(t, fx.broadcaster.payloads["conv-1"], len(frames))

	messages, err := fx.store.GetMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, messages[1].Role)
}

func TestStreamRequestFramesDecodeOnTheWire(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())

	var frames []frame.Frame
	require.NoError(t, fx.svc.StreamRequest(context.Background(), request("hello"), collect(&frames)))

	for _, f := range frames {
		rec, err := frame.Encode(f)
		require.NoError(t, err)
		got, err := frame.Decode(strings.TrimPrefix(string(rec), frame.Marker))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestStreamRequestModelFailureEmitsError(t *testing.T) {
	fx := newFixture(t, &scriptedLLM{replies: []reply{
		{content: "research"},
		{err: errors.New("rate limited")},
	}})
	ctx := context.Background()

	var frames []frame.Frame
	err := fx.svc.StreamRequest(ctx, request("Find papers"), collect(&frames))
	require.Error(t, err)

	last := frames[len(frames)-1]
	require.Equal(t, frame.TypeError, last.Type())
	e := last.(frame.Error)
	assert.Equal(t, "Error: failed to generate answer: rate limited", e.Message)
	assert.NotContains(t, frameTypes(frames), frame.TypeResponse)

	run, err := fx.store.GetRun(ctx, e.ProcessID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusError, run.Status)
	assert.Equal(t, "failed to generate answer: rate limited", run.Error)
}

func TestStreamRequestStopsWhenEmitFails(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())

	calls := 0
	gone := errors.New("broken pipe")
	err := fx.svc.StreamRequest(context.Background(), request("hello"), func(frame.Frame) error {
		calls++
		return gone
	})
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 1, calls)
}

func TestStreamRequestCancelledContextEmitsNoError(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	fx.svc.config.StepDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var frames []frame.Frame
	err := fx.svc.StreamRequest(ctx, request("hello"), func(f frame.Frame) error {
		frames = append(frames, f)
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []frame.Type{frame.TypeStatus}, frameTypes(frames))

	active, err := fx.store.ListActiveRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestStreamRequestValidation(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())

	for _, req := range []domain.AgentRequest{
		{CustomerMessage: "hi"},
		{ConversationHash: "c", CustomerMessage: "   "},
	} {
		var frames []frame.Frame
		err := fx.svc.StreamRequest(context.Background(), req, collect(&frames))
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Empty(t, frames)
	}
}

func TestHandleRequest(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	ctx := context.Background()

	resp, err := fx.svc.HandleRequest(ctx, request("What is attention?"))
	require.NoError(t, err)
	assert.Equal(t, domain.IntentKnowledgeQuery, resp.Intent)
	assert.Equal(t, []string{"Search knowledge base", "Retrieve information", "Formulate response"}, resp.Plan)
	assert.NotEmpty(t, resp.Response)

	status, err := fx.svc.ProcessStatus(ctx, resp.ProcessID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, status.Status)
	assert.NotEmpty(t, status.EndTime)

	active, err := fx.svc.ActiveProcesses(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestHistoryIsSentToModel(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	ctx := context.Background()

	_, err := fx.svc.HandleRequest(ctx, request("first question"))
	require.NoError(t, err)
	_, err = fx.svc.HandleRequest(ctx, request("second question"))
	require.NoError(t, err)

	messages, err := fx.svc.GetMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestProcessStatusNotFound(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	_, err := fx.svc.ProcessStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDetectIntentFallsBackToKeywords(t *testing.T) {
	fx := newFixture(t, &scriptedLLM{replies: []reply{{err: errors.New("down")}}})
	assert.Equal(t, domain.IntentAnalysis, fx.svc.DetectIntent(context.Background(), "Compare these two methods"))
}

func TestDetectIntentUnrecognizedAnswerIsGeneral(t *testing.T) {
	fx := newFixture(t, &scriptedLLM{replies: []reply{{content: "astrology"}}})
	assert.Equal(t, domain.IntentGeneral, fx.svc.DetectIntent(context.Background(), "Find papers"))

	fx = newFixture(t, &scriptedLLM{replies: []reply{{content: " Analysis.\n"}}})
	assert.Equal(t, domain.IntentAnalysis, fx.svc.DetectIntent(context.Background(), "x"))
}

func TestInsightWrittenBackWhenPolicyAllows(t *testing.T) {
	long := strings.Repeat("Transformers rely on attention. ", 5)
	fx := newFixture(t, &scriptedLLM{replies: []reply{{content: "research"}, {content: long}}})
	ctx := context.Background()

	_, err := fx.svc.HandleRequest(ctx, request("transformers"))
	require.NoError(t, err)

	insights, err := fx.store.ResearchInsights(ctx, "transformers", 0)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, strings.TrimSpace(long), insights[0].Content)
}

func TestInsightNotWrittenForGeneralIntent(t *testing.T) {
	long := strings.Repeat("Some general chatter. ", 10)
	fx := newFixture(t, &scriptedLLM{replies: []reply{{content: "general"}, {content: long}}})
	ctx := context.Background()

	_, err := fx.svc.HandleRequest(ctx, request("hello"))
	require.NoError(t, err)

	memories, err := fx.store.ListMemories(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestRunEventsForUnknownRun(t *testing.T) {
	fx := newFixture(t, llm.NewMockClient())
	_, err := fx.svc.GetRunEvents(context.Background(), "missing", 0, nil, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
