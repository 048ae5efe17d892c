package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Conn is the push-capable connection handle stored in the registry.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry maps a user to their active push connection. The modeled
// invariant is single-handle-per-user: a second connection for the same user
// displaces the first (last-connected-wins), and the displaced handle is
// closed so its reader observes the eviction.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]Conn
	logger *slog.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		conns:  make(map[uuid.UUID]Conn),
		logger: log.With(slog.String("component", "connection_registry")),
	}
}

// Register stores the connection for the user, displacing and closing any
// previous one.
func (r *Registry) Register(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	previous := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if previous != nil && previous != conn {
		if err := previous.Close(); err != nil {
			r.logger.Debug("failed to close displaced connection",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		r.logger.Info("connection displaced",
			slog.String("user_id", userID.String()))
	}

	r.logger.Info("connection registered", slog.String("user_id", userID.String()))
}

// Unregister removes the user's entry, but only if it still refers to the
// given connection: a disconnect racing a reconnect must not evict the newer
// handle.
func (r *Registry) Unregister(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if ok && current == conn {
		delete(r.conns, userID)
	}
	r.mu.Unlock()

	if ok && current == conn {
		r.logger.Info("connection unregistered", slog.String("user_id", userID.String()))
	}
}

// Get returns the user's active connection, if any.
func (r *Registry) Get(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// CloseAll closes and removes every registered connection. Used at
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[uuid.UUID]Conn)
	r.mu.Unlock()

	for userID, conn := range conns {
		if err := conn.Close(); err != nil {
			r.logger.Debug("failed to close connection during shutdown",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
	}

	if len(conns) > 0 {
		r.logger.Info("closed all connections", slog.Int("count", len(conns)))
	}
}
