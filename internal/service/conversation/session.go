package conversation

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// Observer is notified after every append and status change. Calls happen on the
// writer's goroutine, outside any session lock.
type Observer interface {
	EntryAppended(sessionID string, entry domain.ConversationEntry)
	StatusChanged(status domain.ListeningStatus)
}

// Session owns the state of one running interview: the log, the latest exchange and
// the listening flag. The capture loop is its only writer.
type Session struct {
	id      string
	profile string
	log     *Log
	now     util.Clock
	logger  *zap.Logger

	mu        sync.RWMutex
	current   domain.CurrentResponse
	listening bool

	obsMu     sync.RWMutex
	observers []Observer
}

type Option func(*Session)

func WithClock(clock util.Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

func NewSession(profileName string, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		id:      uuid.NewString(),
		profile: profileName,
		log:     NewLog(),
		now:     util.SystemClock,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info("Session created",
		zap.String("session_id", s.id),
		zap.String("profile", s.profile),
	)
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) Profile() string { return s.profile }
func (s *Session) Log() *Log       { return s.log }

func (s *Session) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

// RecordQuestion appends an interviewer entry and makes it the current question.
func (s *Session) RecordQuestion(text string) domain.ConversationEntry {
	entry := domain.ConversationEntry{
		Speaker:   domain.SpeakerInterviewer,
		Text:      text,
		Timestamp: s.now(),
	}
	s.log.Append(entry)

	s.mu.Lock()
	s.current = domain.CurrentResponse{Question: text, Timestamp: entry.Timestamp}
	s.mu.Unlock()

	s.notifyEntry(entry)
	return entry
}

// RecordAnswer appends an assistant entry and pairs it with question as the latest
// exchange.
func (s *Session) RecordAnswer(question, response string) domain.ConversationEntry {
	entry := domain.ConversationEntry{
		Speaker:   domain.SpeakerAssistant,
		Text:      response,
		Timestamp: s.now(),
	}
	s.log.Append(entry)

	s.mu.Lock()
	s.current = domain.CurrentResponse{Question: question, Response: response, Timestamp: entry.Timestamp}
	s.mu.Unlock()

	s.notifyEntry(entry)
	return entry
}

func (s *Session) Current() domain.CurrentResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Session) IsListening() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listening
}

// SetListening flips the listening flag and notifies observers on change.
func (s *Session) SetListening(on bool) {
	s.mu.Lock()
	changed := s.listening != on
	s.listening = on
	s.mu.Unlock()

	if changed {
		s.notifyStatus(s.Status())
	}
}

func (s *Session) Status() domain.ListeningStatus {
	s.mu.RLock()
	current := s.current
	listening := s.listening
	s.mu.RUnlock()

	return domain.ListeningStatus{
		IsListening:       listening,
		ConversationCount: s.log.Len(),
		CurrentQuestion:   current.Question,
		LastResponse:      current.Response,
		SessionID:         s.id,
		Profile:           s.profile,
	}
}

func (s *Session) snapshotObservers() []Observer {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	out := make([]Observer, len(s.observers))
	copy(out, s.observers)
	return out
}

func (s *Session) notifyEntry(entry domain.ConversationEntry) {
	for _, o := range s.snapshotObservers() {
		o.EntryAppended(s.id, entry)
	}
}

func (s *Session) notifyStatus(status domain.ListeningStatus) {
	for _, o := range s.snapshotObservers() {
		o.StatusChanged(status)
	}
}
