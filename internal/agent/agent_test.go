package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// scriptedStep is one canned model response: either a message or an error.
type scriptedStep struct {
	message *schema.Message
	err     error
}

// scriptedModel plays back canned responses so agent behavior can be tested
// without a network. It records every input it was called with.
type scriptedModel struct {
	mu     sync.Mutex
	steps  []scriptedStep
	calls  int
	inputs [][]*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.inputs = append(m.inputs, input)

	if len(m.steps) == 0 {
		return nil, fmt.Errorf("unexpected model call %d", m.calls)
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	return step.message, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming is not scripted")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// plainModel implements only the base chat interface, no tool calling.
type plainModel struct{}

func (p *plainModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("ok", nil), nil
}

func (p *plainModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming is not supported")
}

func toolCallMessage(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func newTestAgent(t *testing.T, m model.BaseChatModel, opts ...AgentOption) *Agent {
	t.Helper()
	all := append([]AgentOption{WithChatModel(m), WithStore(newMockStore())}, opts...)
	a, err := New(context.Background(), all...)
	if err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}
	return a
}

// TestNewValidation tests option and required-field validation
func TestNewValidation(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		opts        []AgentOption
		expectedErr string
	}{
		{
			name:        "Missing chat model",
			opts:        []AgentOption{WithStore(newMockStore())},
			expectedErr: "chat model is required",
		},
		{
			name:        "Missing store",
			opts:        []AgentOption{WithChatModel(&scriptedModel{})},
			expectedErr: "dataset store is required",
		},
		{
			name:        "Model without tool calling",
			opts:        []AgentOption{WithChatModel(&plainModel{}), WithStore(newMockStore())},
			expectedErr: "does not support tool calling",
		},
		{
			name:        "History cap too small",
			opts:        []AgentOption{WithChatModel(&scriptedModel{}), WithStore(newMockStore()), WithMaxHistory(1)},
			expectedErr: "max history",
		},
		{
			name:        "Zero max steps",
			opts:        []AgentOption{WithChatModel(&scriptedModel{}), WithStore(newMockStore()), WithMaxSteps(0)},
			expectedErr: "max steps",
		},
		{
			name:        "Blank error reply",
			opts:        []AgentOption{WithChatModel(&scriptedModel{}), WithStore(newMockStore()), WithErrorReply("   ")},
			expectedErr: "error reply",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, tc.opts...)
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tc.expectedErr) {
				t.Errorf("Expected error containing %q, got %q", tc.expectedErr, err.Error())
			}
		})
	}
}

// TestChatAnswersUsingTools tests a full question round trip through a tool call
func TestChatAnswersUsingTools(t *testing.T) {
	final := "Oxford Rd currently has the highest turbidity at 12.0 NTU."
	m := &scriptedModel{steps: []scriptedStep{
		{message: toolCallMessage("compare_sites", `{"metric":"turbidity"}`)},
		{message: schema.AssistantMessage(final, nil)},
	}}
	a := newTestAgent(t, m)

	reply, err := a.Chat(context.Background(), "s1", "Which site has the highest turbidity right now?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply.Text != final {
		t.Errorf("Expected the final answer, got %q", reply.Text)
	}
	if reply.Failed {
		t.Error("Expected a successful reply")
	}
	if m.calls != 2 {
		t.Errorf("Expected 2 model calls around the tool call, got %d", m.calls)
	}

	// Only the user question and the final answer are kept; tool traffic
	// never enters the transcript.
	history := a.History("s1")
	if len(history) != 2 {
		t.Fatalf("Expected 2 history turns, got %d", len(history))
	}
	if history[0].Role != RoleUser || history[1].Role != RoleAssistant {
		t.Errorf("Expected a user turn then an assistant turn, got %s then %s", history[0].Role, history[1].Role)
	}
	if history[1].Content != final {
		t.Errorf("Expected the stored answer to match the reply, got %q", history[1].Content)
	}
}

// TestChatRetriesOnceThenSucceeds tests the single immediate retry
func TestChatRetriesOnceThenSucceeds(t *testing.T) {
	m := &scriptedModel{steps: []scriptedStep{
		{err: errors.New("connection reset by peer")},
		{message: schema.AssistantMessage("All sites look fine today.", nil)},
	}}
	a := newTestAgent(t, m)

	reply, err := a.Chat(context.Background(), "s1", "How is the water?")
	if err != nil {
		t.Fatalf("Expected the retry to succeed, got %v", err)
	}
	if reply.Text != "All sites look fine today." {
		t.Errorf("Expected the retried answer, got %q", reply.Text)
	}
	if m.calls != 2 {
		t.Errorf("Expected exactly 2 attempts, got %d", m.calls)
	}
	if got := len(a.History("s1")); got != 2 {
		t.Errorf("Expected the successful turn to be committed, got %d turns", got)
	}
}

// TestChatFailureLeavesHistoryUntouched tests the give-up path after the retry
func TestChatFailureLeavesHistoryUntouched(t *testing.T) {
	m := &scriptedModel{steps: []scriptedStep{
		{err: errors.New("upstream timeout")},
		{err: errors.New("upstream timeout")},
	}}
	a := newTestAgent(t, m, WithErrorReply("The assistant is offline, try again shortly."))

	reply, err := a.Chat(context.Background(), "s1", "How is the water?")
	if err == nil {
		t.Fatal("Expected an error after both attempts failed")
	}
	if !errors.Is(err, ErrRemoteCall) {
		t.Errorf("Expected the error to wrap ErrRemoteCall, got %v", err)
	}
	if !reply.Failed {
		t.Error("Expected the reply to be marked failed")
	}
	if reply.Text != "The assistant is offline, try again shortly." {
		t.Errorf("Expected the configured error reply, got %q", reply.Text)
	}
	if m.calls != 2 {
		t.Errorf("Expected exactly one retry (2 attempts), got %d", m.calls)
	}
	if got := len(a.History("s1")); got != 0 {
		t.Errorf("Expected the failed turn to leave history empty, got %d turns", got)
	}
}

// TestChatSendsHistoryWindow tests that prior turns reach the model
func TestChatSendsHistoryWindow(t *testing.T) {
	m := &scriptedModel{steps: []scriptedStep{
		{message: schema.AssistantMessage("first answer", nil)},
		{message: schema.AssistantMessage("second answer", nil)},
	}}
	a := newTestAgent(t, m)
	ctx := context.Background()

	if _, err := a.Chat(ctx, "s1", "first question"); err != nil {
		t.Fatalf("First chat failed: %v", err)
	}
	if _, err := a.Chat(ctx, "s1", "second question"); err != nil {
		t.Fatalf("Second chat failed: %v", err)
	}

	if len(m.inputs) != 2 {
		t.Fatalf("Expected 2 recorded model inputs, got %d", len(m.inputs))
	}
	input := m.inputs[1]
	if input[0].Role != schema.System {
		t.Errorf("Expected the input to open with the system prompt, got role %s", input[0].Role)
	}
	if last := input[len(input)-1]; last.Content != "second question" {
		t.Errorf("Expected the new question last, got %q", last.Content)
	}

	var sawFirstQuestion, sawFirstAnswer bool
	for _, msg := range input {
		if msg.Content == "first question" {
			sawFirstQuestion = true
		}
		if msg.Content == "first answer" {
			sawFirstAnswer = true
		}
	}
	if !sawFirstQuestion || !sawFirstAnswer {
		t.Error("Expected the prior turn to be replayed to the model")
	}
}

// TestChatRecordsDirective tests that a tool's site selection reaches the reply
func TestChatRecordsDirective(t *testing.T) {
	m := &scriptedModel{steps: []scriptedStep{
		{message: toolCallMessage("get_site_info", `{"site":"chelsea"}`)},
		{message: schema.AssistantMessage("Chelsea Cir looked clear on 2024-06-09.", nil)},
	}}
	a := newTestAgent(t, m)

	reply, err := a.Chat(context.Background(), "s1", "How does the Chelsea Circle site look?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply.Directive == nil {
		t.Fatal("Expected a dashboard directive")
	}
	if reply.Directive.Action != ActionSelectSite {
		t.Errorf("Expected action %s, got %s", ActionSelectSite, reply.Directive.Action)
	}
	if reply.Directive.Site != "peav@vick" {
		t.Errorf("Expected site peav@vick, got %s", reply.Directive.Site)
	}
}

// TestChatWithoutToolCallsHasNoDirective tests the nil directive default
func TestChatWithoutToolCallsHasNoDirective(t *testing.T) {
	m := &scriptedModel{steps: []scriptedStep{
		{message: schema.AssistantMessage("Hello! Ask me about the creeks.", nil)},
	}}
	a := newTestAgent(t, m)

	reply, err := a.Chat(context.Background(), "s1", "hi")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply.Directive != nil {
		t.Errorf("Expected no directive, got %+v", reply.Directive)
	}
}

// TestChatRejectsEmptyMessage tests input validation
func TestChatRejectsEmptyMessage(t *testing.T) {
	m := &scriptedModel{}
	a := newTestAgent(t, m)

	_, err := a.Chat(context.Background(), "s1", "   ")
	if err == nil {
		t.Fatal("Expected an error for a blank message")
	}
	if m.calls != 0 {
		t.Errorf("Expected no model calls for a blank message, got %d", m.calls)
	}
}

// TestClearSession tests transcript teardown through the agent
func TestClearSession(t *testing.T) {
	m := &scriptedModel{steps: []scriptedStep{
		{message: schema.AssistantMessage("noted", nil)},
	}}
	a := newTestAgent(t, m)

	if _, err := a.Chat(context.Background(), "s1", "remember this"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	a.ClearSession("s1")

	if got := len(a.History("s1")); got != 0 {
		t.Errorf("Expected an empty transcript after clearing, got %d turns", got)
	}
}

// TestBuildSystemPrompt tests that the prompt carries the site roster
func TestBuildSystemPrompt(t *testing.T) {
	store := newMockStore()
	sites, err := store.Sites()
	if err != nil {
		t.Fatalf("Failed to list sites: %v", err)
	}

	prompt := BuildSystemPrompt(sites)

	for _, code := range []string{"peav@oldb", "peav@ndec", "peav@vick", "lull@lull", "burn@burn"} {
		if !strings.Contains(prompt, code) {
			t.Errorf("Expected the prompt to mention %s", code)
		}
	}
	if !strings.Contains(prompt, "Monitoring sites:") {
		t.Error("Expected the prompt to introduce the site roster")
	}
	if strings.HasSuffix(prompt, "\n") {
		t.Error("Expected trailing whitespace to be trimmed")
	}
}
