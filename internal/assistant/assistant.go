package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/nao1215/plantdoc/internal/backend"
	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/metrics"
)

// ErrEmptyMessage is returned by Ask for a blank message. Nothing is sent.
var ErrEmptyMessage = backend.ErrEmptyMessage

// Chatter is the transport used by the assistant.
// *backend.Client implements it.
type Chatter interface {
	Chat(ctx context.Context, message string) (*backend.ChatResponse, error)
}

// Role identifies who authored a turn.
type Role string

const (
	// RoleUser marks a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a reply or a canned message.
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Reply is the answer to one question.
type Reply struct {
	// Text is the backend answer or a localized apology.
	Text string

	// Apology is true when Text is a canned apology instead of an answer.
	Apology bool
}

// Assistant is the conversational helper ("Dr. Plant"). The history starts
// with the welcome greeting.
//
// Design decision: Backend failures are turned into apology replies
// instead of errors. The chat keeps going, and the user can simply ask
// again once the server is back.
type Assistant struct {
	client   Chatter
	messages locale.Messages
	logger   *slog.Logger
	metrics  *metrics.Collector

	mu      sync.Mutex
	history []Turn
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics enables metric collection.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Assistant) {
		a.metrics = c
	}
}

// New creates an Assistant speaking the language of messages.
func New(client Chatter, messages locale.Messages, opts ...Option) *Assistant {
	a := &Assistant{
		client:   client,
		messages: messages,
		logger:   slog.Default(),
		history:  []Turn{{Role: RoleAssistant, Text: messages.ChatWelcome}},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Welcome returns the greeting shown before the first question.
func (a *Assistant) Welcome() string {
	return a.messages.ChatWelcome
}

// Ask sends message and returns the reply. The only error is
// ErrEmptyMessage; backend failures become apologies.
func (a *Assistant) Ask(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	a.append(Turn{Role: RoleUser, Text: message})

	reply := a.ask(ctx, message)
	if reply.Apology {
		a.metrics.ObserveChat(metrics.OutcomeApology)
	} else {
		a.metrics.ObserveChat(metrics.OutcomeAnswered)
	}
	a.append(Turn{Role: RoleAssistant, Text: reply.Text})
	return reply, nil
}

func (a *Assistant) ask(ctx context.Context, message string) Reply {
	resp, err := a.client.Chat(ctx, message)
	if err != nil {
		a.logger.Debug("chat request failed", "error", err)
		// A server that answered with an error status is reachable;
		// anything else means it is not.
		var se *backend.StatusError
		if errors.As(err, &se) {
			return Reply{Text: a.messages.ChatUnavailable, Apology: true}
		}
		return Reply{Text: a.messages.ChatNetworkError, Apology: true}
	}

	text := strings.TrimSpace(resp.Response)
	if resp.Status != backend.StatusSuccess || text == "" {
		a.logger.Debug("chat reply unusable", "status", resp.Status)
		return Reply{Text: a.messages.ChatUnavailable, Apology: true}
	}
	return Reply{Text: text}
}

func (a *Assistant) append(t Turn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, t)
}

// History returns a copy of the conversation so far.
func (a *Assistant) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Turn, len(a.history))
	copy(out, a.history)
	return out
}
