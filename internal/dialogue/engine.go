// Package dialogue implements the conversation engine: turn accounting,
// prompt assembly, backend generation with degraded fallback, and
// persistence of both sides of each exchange.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/agora-edu/agora-dialogue/internal/llm"
	"github.com/agora-edu/agora-dialogue/internal/prompts"
	"github.com/agora-edu/agora-dialogue/internal/store"
)

// DefaultMaxTurns is the user-turn budget applied when a discussion's
// settings leave it unset.
const DefaultMaxTurns = 15

// maxCompletionTokens caps response length; the prompts already ask for
// two or three sentences.
const maxCompletionTokens = 500

// Request is one chat exchange. An empty Message on a fresh conversation
// asks the AI to open the discussion.
type Request struct {
	DiscussionID  string
	ParticipantID string
	Message       string
	Locale        string
}

// Response is the engine's answer to one exchange.
type Response struct {
	Text       string
	ResponseID string

	// IsClosing marks this as the wrap-up answer: the turn budget is
	// spent and the client should end the conversation.
	IsClosing bool

	// Degraded marks a canned response produced without a backend.
	Degraded bool
}

// Engine orchestrates one request cycle: load state, compute the turn
// position, build the prompt, generate, persist.
//
// The engine keeps no per-conversation state between requests; everything
// is reloaded from the store. Concurrent requests for the same
// participant are not serialized here. Callers that allow parallel sends
// from one participant get interleaved history, not corruption.
type Engine struct {
	store    store.Gateway
	client   llm.Client // nil means no backend configured, always degraded
	model    string
	maxTurns int
	logger   *slog.Logger
}

// NewEngine creates an engine. client may be nil, in which case every
// response is served from the degraded pool. maxTurns is the fallback
// budget for discussions that do not set one; zero selects
// DefaultMaxTurns.
func NewEngine(gw store.Gateway, client llm.Client, model string, maxTurns int, logger *slog.Logger) *Engine {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    gw,
		client:   client,
		model:    model,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Respond runs one exchange and returns the full response text.
func (e *Engine) Respond(ctx context.Context, req Request) (*Response, error) {
	return e.RespondStream(ctx, req, nil)
}

// RespondStream runs one exchange, delivering response text to fn chunk
// by chunk as the backend produces it. The returned Response carries the
// same full text that was streamed. A nil fn makes a single batch
// generation instead.
//
// fn returning an error counts as caller cancellation: generation stops,
// the partial text accumulated so far is persisted best-effort, and an
// ErrorCanceled is returned.
func (e *Engine) RespondStream(ctx context.Context, req Request, fn func(chunk string) error) (*Response, error) {
	if req.DiscussionID == "" || req.ParticipantID == "" {
		return nil, newError(ErrorInvalidInput, "discussion and participant ids are required", nil)
	}

	discussion, err := e.store.GetDiscussion(ctx, req.DiscussionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrorNotFound, "discussion not found", err)
		}
		return nil, newError(ErrorPersistence, "load discussion", err)
	}

	mode, err := prompts.ParseMode(discussion.Settings.AIMode)
	if err != nil {
		return nil, newError(ErrorInvalidInput, "invalid ai mode in discussion settings", err)
	}

	participant, err := e.store.GetParticipant(ctx, req.ParticipantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrorNotFound, "participant not found", err)
		}
		return nil, newError(ErrorPersistence, "load participant", err)
	}
	if participant.SessionID != discussion.ID {
		return nil, newError(ErrorNotFound, "participant does not belong to this discussion", nil)
	}

	history, err := e.store.ListTurns(ctx, req.ParticipantID)
	if err != nil {
		return nil, newError(ErrorPersistence, "load history", err)
	}

	userTurns := CountUserTurns(history)
	starting := IsStarting(userTurns, req.Message)
	closing := IsClosingTurn(userTurns, e.budget(discussion.Settings), discussion.Settings.Unlimited)

	message := strings.TrimSpace(req.Message)
	if message == "" && !starting {
		return nil, newError(ErrorInvalidInput, "message is required", nil)
	}

	template := prompts.Select(mode, starting, closing)
	system, input := template.Render(prompts.Context{
		Title:       discussion.Title,
		Description: discussion.Description,
		StanceLabel: stanceLabel(participant, discussion.Settings.StanceLabels),
		Language:    prompts.Language(req.Locale),
		Input:       message,
		AIContext:   discussion.Settings.AIContext,
	})

	// The student's turn is committed before generation. Losing it would
	// desync the turn count, so a failure here is fatal to the request.
	if message != "" {
		userTurn := &store.Turn{
			SessionID:     discussion.ID,
			ParticipantID: participant.ID,
			Role:          store.RoleUser,
			Content:       message,
		}
		if err := e.store.InsertTurn(ctx, userTurn); err != nil {
			return nil, newError(ErrorPersistence, "persist user turn", err)
		}
	}

	if e.client == nil {
		return e.degrade(ctx, discussion, participant, req.Locale, closing, fn, nil)
	}

	lreq := llm.Request{
		Model:              e.model,
		System:             system,
		History:            toMessages(history),
		Input:              input,
		PreviousResponseID: lastResponseID(history),
		MaxTokens:          maxCompletionTokens,
	}

	var consumerErr error
	var deliver llm.StreamFunc
	if fn != nil {
		deliver = func(chunk string) error {
			if err := fn(chunk); err != nil {
				consumerErr = err
				return err
			}
			return nil
		}
	}

	comp, genErr := e.client.Stream(ctx, lreq, deliver)

	if genErr != nil && (consumerErr != nil || ctx.Err() != nil) {
		// The caller went away mid-stream. Keep what was already said so
		// the next request sees a consistent history.
		if comp != nil && comp.Content != "" {
			e.persistAITurn(context.WithoutCancel(ctx), discussion.ID, participant.ID, comp.Content, comp.ResponseID)
		}
		return nil, newError(ErrorCanceled, "generation canceled", genErr)
	}
	if genErr != nil || comp == nil || comp.Content == "" {
		e.logger.Warn("generation failed, serving degraded response",
			"discussion", discussion.ID, "participant", participant.ID, "error", genErr)
		return e.degrade(ctx, discussion, participant, req.Locale, closing, fn, genErr)
	}

	e.persistAITurn(ctx, discussion.ID, participant.ID, comp.Content, comp.ResponseID)

	return &Response{
		Text:       comp.Content,
		ResponseID: comp.ResponseID,
		IsClosing:  closing,
	}, nil
}

// degrade serves a canned response. The student already got their turn
// persisted; this keeps the conversation alive instead of surfacing a
// backend failure.
func (e *Engine) degrade(ctx context.Context, d *store.Discussion, p *store.Participant, locale string, closing bool, fn func(string) error, cause error) (*Response, error) {
	text := FallbackResponse(locale)
	if fn != nil {
		// A failing consumer here means nobody is listening; the turn is
		// still recorded.
		_ = fn(text)
	}
	e.persistAITurn(ctx, d.ID, p.ID, text, DegradedResponseID)
	return &Response{
		Text:       text,
		ResponseID: DegradedResponseID,
		IsClosing:  closing,
		Degraded:   true,
	}, nil
}

// persistAITurn records the AI side of the exchange. The response was
// already produced and possibly delivered, so a failure here is logged
// rather than returned.
func (e *Engine) persistAITurn(ctx context.Context, sessionID, participantID, content, responseID string) {
	turn := &store.Turn{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Role:          store.RoleAI,
		Content:       content,
		ResponseID:    responseID,
	}
	if err := e.store.InsertTurn(ctx, turn); err != nil {
		e.logger.Error("failed to persist ai turn",
			"discussion", sessionID, "participant", participantID, "error", err)
	}
}

// budget resolves the effective user-turn budget for a discussion.
func (e *Engine) budget(s store.Settings) int {
	if s.MaxTurns > 0 {
		return s.MaxTurns
	}
	return e.maxTurns
}

// stanceLabel resolves the human-readable stance slot of the prompt.
// Session-custom labels win; otherwise the stock labels apply, with
// 미정 (undecided) for anything unrecognized.
func stanceLabel(p *store.Participant, labels map[string]string) string {
	label, ok := labels[p.Stance]
	if !ok || label == "" {
		switch p.Stance {
		case "pro":
			label = "찬성"
		case "con":
			label = "반대"
		case "neutral":
			label = "중립"
		default:
			label = "미정"
		}
	}
	if p.StanceStatement != "" {
		label += " (" + p.StanceStatement + ")"
	}
	return label
}

// toMessages converts persisted turns into backend chat messages.
// Instructor and system turns stay out of the model's view.
func toMessages(turns []store.Turn) []llm.Message {
	var msgs []llm.Message
	for _, t := range turns {
		switch t.Role {
		case store.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.Content})
		case store.RoleAI:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
		}
	}
	return msgs
}

// lastResponseID finds the most recent backend response identifier in
// the history. The value is opaque to the engine: it is handed back to
// the provider unchanged. Degraded turns are skipped, their sentinel is
// not a backend ID.
func lastResponseID(turns []store.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role == store.RoleAI && t.ResponseID != "" && t.ResponseID != DegradedResponseID {
			return t.ResponseID
		}
	}
	return ""
}
