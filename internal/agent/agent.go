package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"creekwatch/internal/creek"
)

const (
	// DefaultMaxHistory is the number of turns kept per session transcript.
	DefaultMaxHistory = 20

	// DefaultMaxSteps caps model and tool round trips within one question.
	DefaultMaxSteps = 12

	// DefaultErrorReply is shown to the user when the model cannot be reached.
	DefaultErrorReply = "I ran into a problem answering that. Please try again in a moment."
)

// ErrRemoteCall reports that the remote model call failed on both the first
// attempt and the single retry.
var ErrRemoteCall = errors.New("remote model call failed")

// AgentConfig holds the configuration for creating a chat agent
type AgentConfig struct {
	chatModel    model.BaseChatModel
	store        creek.Store
	systemPrompt string
	maxHistory   int
	maxSteps     int
	errorReply   string
}

// AgentOption is a functional option for configuring the agent
type AgentOption func(*AgentConfig) error

// WithChatModel sets the language model the agent talks to
func WithChatModel(chatModel model.BaseChatModel) AgentOption {
	return func(c *AgentConfig) error {
		if chatModel == nil {
			return fmt.Errorf("chat model cannot be nil")
		}
		c.chatModel = chatModel
		return nil
	}
}

// WithStore sets the dataset store the tools read from
func WithStore(store creek.Store) AgentOption {
	return func(c *AgentConfig) error {
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithSystemPrompt sets a custom system prompt (default: built from the site list)
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *AgentConfig) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithMaxHistory sets how many turns each session transcript retains
func WithMaxHistory(turns int) AgentOption {
	return func(c *AgentConfig) error {
		if turns < 2 {
			return fmt.Errorf("max history must be at least 2 turns")
		}
		c.maxHistory = turns
		return nil
	}
}

// WithMaxSteps caps the model and tool round trips per question
func WithMaxSteps(steps int) AgentOption {
	return func(c *AgentConfig) error {
		if steps < 1 {
			return fmt.Errorf("max steps must be at least 1")
		}
		c.maxSteps = steps
		return nil
	}
}

// WithErrorReply sets the text shown when the remote model call fails
func WithErrorReply(text string) AgentOption {
	return func(c *AgentConfig) error {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("error reply cannot be empty")
		}
		c.errorReply = text
		return nil
	}
}

// Reply is one answered turn: the assistant text plus any dashboard
// directive a tool recorded while producing it.
type Reply struct {
	Text      string     `json:"text"`
	Directive *Directive `json:"directive,omitempty"`
	Failed    bool       `json:"failed,omitempty"`
}

// Agent answers water quality questions over the loaded dataset through a
// tool-calling model, keeping an append-only transcript per session.
type Agent struct {
	agent      *react.Agent
	history    *HistoryStore
	errorReply string
}

// New creates a chat agent wired to the dataset tools.
// It uses the Options pattern for flexible configuration.
func New(ctx context.Context, opts ...AgentOption) (*Agent, error) {
	// Initialize config with defaults
	config := &AgentConfig{
		maxHistory: DefaultMaxHistory,
		maxSteps:   DefaultMaxSteps,
		errorReply: DefaultErrorReply,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate required fields
	if config.chatModel == nil {
		return nil, fmt.Errorf("chat model is required (use WithChatModel)")
	}
	if config.store == nil {
		return nil, fmt.Errorf("dataset store is required (use WithStore)")
	}

	toolModel, ok := config.chatModel.(model.ToolCallingChatModel)
	if !ok {
		return nil, fmt.Errorf("chat model does not support tool calling")
	}

	systemPrompt := config.systemPrompt
	if systemPrompt == "" {
		sites, err := config.store.Sites()
		if err != nil {
			return nil, fmt.Errorf("failed to list sites for the system prompt: %w", err)
		}
		systemPrompt = BuildSystemPrompt(sites)
	}

	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: toolModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: NewToolset(config.store).Tools(),
		},
		MaxStep: config.maxSteps,
		MessageModifier: func(ctx context.Context, input []*schema.Message) []*schema.Message {
			return append([]*schema.Message{schema.SystemMessage(systemPrompt)}, input...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return &Agent{
		agent:      reactAgent,
		history:    NewHistoryStore(config.maxHistory),
		errorReply: config.errorReply,
	}, nil
}

// Chat answers one user message within a session. The session transcript is
// committed only after the model answers, so a failed call leaves history
// untouched. A failed remote call gets exactly one immediate retry; if that
// also fails, the returned Reply carries the configured error text with
// Failed set, alongside an error wrapping ErrRemoteCall.
func (a *Agent) Chat(ctx context.Context, sessionID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("message cannot be empty")
	}

	input := toModelMessages(a.history.Window(sessionID), message)

	// Each attempt gets a fresh recorder so a directive from a failed
	// attempt cannot leak into the reply.
	attemptCtx, recorder := WithDirectives(ctx)
	answer, err := a.agent.Generate(attemptCtx, input)
	if err != nil {
		attemptCtx, recorder = WithDirectives(ctx)
		answer, err = a.agent.Generate(attemptCtx, input)
	}
	if err != nil {
		return Reply{Text: a.errorReply, Failed: true}, fmt.Errorf("%w after retry: %v", ErrRemoteCall, err)
	}

	a.history.Append(sessionID,
		Turn{Role: RoleUser, Content: message},
		Turn{Role: RoleAssistant, Content: answer.Content},
	)

	return Reply{Text: answer.Content, Directive: recorder.Take()}, nil
}

// History returns a copy of the session transcript.
func (a *Agent) History(sessionID string) []Turn {
	return a.history.Window(sessionID)
}

// ClearSession drops the transcript for a session.
func (a *Agent) ClearSession(sessionID string) {
	a.history.Clear(sessionID)
}

func toModelMessages(turns []Turn, message string) []*schema.Message {
	input := make([]*schema.Message, 0, len(turns)+1)
	for _, t := range turns {
		switch t.Role {
		case RoleAssistant:
			input = append(input, schema.AssistantMessage(t.Content, nil))
		default:
			input = append(input, schema.UserMessage(t.Content))
		}
	}
	return append(input, schema.UserMessage(message))
}
