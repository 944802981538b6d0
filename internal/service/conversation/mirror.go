package conversation

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
)

// Store is the slice of the Redis client the mirror needs.
type Store interface {
	RPush(ctx context.Context, key string, values ...any) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Publish(ctx context.Context, channel string, message any) error
}

// Event is the message published on the events channel.
type Event struct {
	Type      string                    `json:"type"`
	SessionID string                    `json:"session_id"`
	Entry     *domain.ConversationEntry `json:"entry,omitempty"`
	Status    *domain.ListeningStatus   `json:"status,omitempty"`
}

// Mirror copies the log into Redis so other processes can follow a session.
// Write failures are logged and counted, never surfaced to the capture loop.
type Mirror struct {
	store   Store
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewMirror(store Store, m *metrics.Metrics, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		store:   store,
		timeout: constants.RedisConfig.ReadyTimeout,
		metrics: m,
		logger:  logger,
	}
}

func LogKey(sessionID string) string {
	return constants.RedisConfig.LogKeyPrefix + sessionID + ":log"
}

func (m *Mirror) EntryAppended(sessionID string, entry domain.ConversationEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	payload, err := json.Marshal(entry)
	if err != nil {
		m.fail("marshal entry", err)
		return
	}

	key := LogKey(sessionID)
	if err := m.store.RPush(ctx, key, payload); err != nil {
		m.fail("rpush", err)
		return
	}
	if err := m.store.Expire(ctx, key, constants.RedisConfig.LogTTL); err != nil {
		m.fail("expire", err)
	}

	m.publish(ctx, Event{Type: "entry", SessionID: sessionID, Entry: &entry})
}

func (m *Mirror) StatusChanged(status domain.ListeningStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.publish(ctx, Event{Type: "status", SessionID: status.SessionID, Status: &status})
}

func (m *Mirror) publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.fail("marshal event", err)
		return
	}
	if err := m.store.Publish(ctx, constants.RedisConfig.EventsChannel, payload); err != nil {
		m.fail("publish", err)
	}
}

func (m *Mirror) fail(op string, err error) {
	m.metrics.IncMirrorErrors()
	m.logger.Warn("Conversation mirror write failed", zap.String("op", op), zap.Error(err))
}
