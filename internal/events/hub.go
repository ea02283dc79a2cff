// Package events fans settlement events out to in-process subscribers.
// The HTTP server bridges subscriptions onto websocket clients.
package events

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

// Type identifies the kind of settlement event.
type Type string

const (
	TypeMarketCreated   Type = "market_created"
	TypeBetPlaced       Type = "bet_placed"
	TypeMarketResolved  Type = "market_resolved"
	TypeWinningsClaimed Type = "winnings_claimed"
)

// Event is one settlement occurrence. Amount is the stake for bets and
// the payout for claims; Outcome is set only on resolution.
type Event struct {
	Type     Type           `json:"type"`
	MarketID uint64         `json:"market_id"`
	Actor    common.Address `json:"actor"`
	Amount   uint64         `json:"amount,omitempty"`
	Outcome  *types.Side    `json:"outcome,omitempty"`
	At       time.Time      `json:"at"`
}

// Hub is a non-blocking pub/sub fan-out. Publish never waits on a
// subscriber: a full subscriber channel drops the event for that
// subscriber only.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buf    int
	closed bool
	logger *zap.Logger
}

// NewHub creates a hub whose subscriber channels buffer buf events.
func NewHub(buf int, logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[int]chan Event),
		buf:    buf,
		logger: logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel func must
// be called to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan Event, h.buf)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Publish delivers ev to every subscriber that has buffer room.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for id, ch := range h.subs {
		select {
		case ch <- ev:
			PublishedTotal.WithLabelValues(string(ev.Type)).Inc()
		default:
			DroppedTotal.Inc()
			h.logger.Warn("event-dropped",
				zap.Int("subscriber", id),
				zap.String("type", string(ev.Type)),
				zap.Uint64("market-id", ev.MarketID))
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.logger.Info("event-hub-closed")
}
