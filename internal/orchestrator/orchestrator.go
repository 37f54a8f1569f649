package orchestrator

import (
	"sync"
	"time"

	"roomchat/internal/contextmgr"
	"roomchat/internal/i18n"
	"roomchat/internal/metrics"
	"roomchat/internal/provider"
	"roomchat/internal/roomstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultCacheTTL = 24 * time.Hour

// session 房间运行时状态，不持久化
// session is per-room runtime state; never persisted.
type session struct {
	awaiting bool
}

// Orchestrator drives send/edit/delete/regenerate for every room. It holds
// no room data of its own: each mutation reads the latest room from the
// RoomStore and writes the whole room back.
type Orchestrator struct {
	rooms    *roomstore.RoomStore
	settings *roomstore.SettingsStore
	provider provider.Provider

	confirm              ConfirmFunc
	onCredentialRequired func(roomID string)
	clock                func() time.Time
	newID                func() string
	i18n                 *i18n.I18n
	metrics              *metrics.Metrics
	tokenizer            *contextmgr.Tokenizer
	cacheTTL             time.Duration
	log                  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func New(rooms *roomstore.RoomStore, settings *roomstore.SettingsStore, p provider.Provider, opts Options) *Orchestrator {
	o := &Orchestrator{
		rooms:                rooms,
		settings:             settings,
		provider:             p,
		confirm:              opts.Confirm,
		onCredentialRequired: opts.OnCredentialRequired,
		clock:                opts.Clock,
		newID:                opts.NewID,
		i18n:                 opts.I18n,
		metrics:              opts.Metrics,
		tokenizer:            opts.Tokenizer,
		cacheTTL:             opts.CacheTTL,
		log:                  opts.Logger.With().Str("component", "orchestrator").Logger(),
		sessions:             make(map[string]*session),
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.i18n == nil {
		o.i18n = i18n.Global()
	}
	if o.tokenizer == nil {
		o.tokenizer = contextmgr.DefaultTokenizer()
	}
	if o.cacheTTL <= 0 {
		o.cacheTTL = defaultCacheTTL
	}
	return o
}

// AwaitingResponse reports whether a completion is in flight for roomID.
func (o *Orchestrator) AwaitingResponse(roomID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[roomID]
	return ok && s.awaiting
}

// acquire 原子地检查并设置 awaiting / atomic check-and-set of the in-flight flag
func (o *Orchestrator) acquire(roomID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[roomID]
	if !ok {
		s = &session{}
		o.sessions[roomID] = s
	}
	if s.awaiting {
		return false
	}
	s.awaiting = true
	return true
}

func (o *Orchestrator) release(roomID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[roomID]; ok {
		s.awaiting = false
	}
}

func (o *Orchestrator) dropSession(roomID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[roomID]; ok && !s.awaiting {
		delete(o.sessions, roomID)
	}
}

func (o *Orchestrator) nowMillis() int64 {
	return o.clock().UnixMilli()
}

// touch keeps updated_at monotonic.
func (o *Orchestrator) touch(updatedAt *int64) {
	if now := o.nowMillis(); now > *updatedAt {
		*updatedAt = now
	}
}
