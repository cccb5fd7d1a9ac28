package calculator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/format"
	"go.uber.org/zap"
)

// HistoryEntry records one completed calculation.
type HistoryEntry struct {
	Operation string    `json:"operation"`
	Result    Value     `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a single calculator session: one state, one writer. It is not
// safe for concurrent use; callers that share a Session must serialize access.
type Session struct {
	id          uuid.UUID
	engine      *Engine
	formatter   *format.Formatter
	state       State
	history     []HistoryEntry
	historySize int
	logger      *zap.Logger
	now         func() time.Time
}

// NewSession starts a powered-on session. A nil formatter renders raw
// numbers; a non-positive historySize uses the default.
func NewSession(logger *zap.Logger, engine *Engine, formatter *format.Formatter, historySize int) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = NewEngine(logger, Options{Precision: constants.DefaultPrecision})
	}
	if historySize <= 0 {
		historySize = constants.DefaultHistorySize
	}
	return &Session{
		id:          uuid.New(),
		engine:      engine,
		formatter:   formatter,
		state:       engine.NewState(),
		historySize: historySize,
		logger:      logger,
		now:         time.Now,
	}
}

// ID identifies the session in context blobs and logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Formatter returns the display formatter of the session.
func (s *Session) Formatter() *format.Formatter {
	return s.formatter
}

// State returns a copy of the current state.
func (s *Session) State() State {
	return s.state
}

// Snapshot returns the external view of the current state.
func (s *Session) Snapshot() Snapshot {
	return s.state.Snapshot(s.formatter)
}

// Display returns the current display string.
func (s *Session) Display() string {
	return s.state.Display(s.formatter)
}

// Press applies keys in order and returns the resulting snapshot.
func (s *Session) Press(keys ...Key) Snapshot {
	for _, k := range keys {
		next, op := s.engine.Step(s.state, k)
		if op.producesResult() && next.On {
			s.record(op.Label(), next.Stack[X])
		}
		s.logger.Debug("key pressed",
			zap.String("op", "calculator.Press"),
			zap.String("session", s.id.String()),
			zap.String("key", k.String()),
			zap.String("display", next.Display(s.formatter)),
		)
		s.state = next
	}
	return s.Snapshot()
}

// PressTokens parses every token before applying any, so an unknown token
// leaves the session unchanged.
func (s *Session) PressTokens(tokens ...string) (Snapshot, error) {
	keys, err := ParseKeys(tokens)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.Press(keys...), nil
}

// Reset returns the session to its power-on state and forgets the history.
func (s *Session) Reset() Snapshot {
	s.state = s.engine.NewState()
	s.history = nil
	return s.Snapshot()
}

// History returns the recorded calculations, oldest first.
func (s *Session) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) record(operation string, result float64) {
	s.history = append(s.history, HistoryEntry{
		Operation: operation,
		Result:    Value(result),
		Timestamp: s.now(),
	})
	if excess := len(s.history) - s.historySize; excess > 0 {
		s.history = append([]HistoryEntry(nil), s.history[excess:]...)
	}
}

// sessionContext is the blob handed to collaborators such as an advice
// service or an access counter.
type sessionContext struct {
	SessionID string         `json:"sessionId"`
	State     Snapshot       `json:"state"`
	History   []HistoryEntry `json:"history"`
}

// Context serializes the session for collaborators that need the current
// calculator state. The calculator never reads the blob back.
func (s *Session) Context() ([]byte, error) {
	blob, err := json.Marshal(sessionContext{
		SessionID: s.id.String(),
		State:     s.Snapshot(),
		History:   s.History(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session context: %w", err)
	}
	return blob, nil
}
