// Package roomstore is the typed façade over the key-value backing: rooms,
// the current-room pointer, settings, quota accounting, the storage error
// log, disposable caches and export/import.
package roomstore

import (
	"errors"
	"sync"
	"time"

	"roomchat/internal/metrics"
	"roomchat/internal/storage"

	"github.com/rs/zerolog"
)

// Persisted keys.
const (
	KeyRooms         = "chappy_rooms"
	KeySettings      = "chappy_settings"
	KeyCurrentRoomID = "chappy_current_room_id"

	cacheKeyPrefix = "cache."
)

// Options configures a Store.
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Now 时钟，默认 time.Now / clock used for error log and cache stamps
	Now func() time.Time
}

// Store is the persistence core shared by RoomStore and SettingsStore. It
// owns quota recovery, the error log and change subscribers.
type Store struct {
	backing storage.Backing
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// writeMu 串行化写入 / serializes backing writes
	writeMu sync.Mutex

	logMu  sync.Mutex
	errLog []ErrorLog

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewStore wraps backing.
func NewStore(backing storage.Backing, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		backing: backing,
		log:     opts.Logger.With().Str("component", "roomstore").Logger(),
		metrics: opts.Metrics,
		now:     now,
		subs:    make(map[int]func(Event)),
	}
}

// Backing returns the underlying key-value backing.
func (s *Store) Backing() storage.Backing {
	return s.backing
}

// read returns the raw value under key; backing errors count as absent.
func (s *Store) read(key string) (string, bool) {
	raw, ok, err := s.backing.Get(key)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("read failed")
		s.recordError("read", key, err)
		return "", false
	}
	return raw, ok
}

// write persists value under key. On quota overflow it purges disposable
// entries and retries exactly once. It never returns an error: failures are
// logged, recorded in the error log and reported as false.
func (s *Store) write(key, value string, disposable bool) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	set := s.backing.Set
	if disposable {
		set = s.backing.SetDisposable
	}

	err := set(key, value)
	if err == nil {
		s.metrics.RecordStoreWrite(key, metrics.ResultOK)
		s.refreshUsage()
		return true
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		s.log.Error().Err(err).Str("key", key).Msg("write failed")
		s.recordError("write", key, err)
		s.metrics.RecordStoreWrite(key, metrics.ResultError)
		return false
	}

	// 配额溢出：清理可丢弃条目后重试一次 / quota overflow: purge disposable entries, retry once
	s.log.Warn().Err(err).Str("key", key).Int64("bytes", storage.Cost(key, value)).Msg("quota exceeded, purging disposable entries")
	s.recordError("write", key, err)
	removed, purgeErr := storage.PurgeDisposable(s.backing)
	s.metrics.RecordQuotaPurge()
	if purgeErr != nil {
		s.log.Error().Err(purgeErr).Msg("purge disposable entries failed")
		s.recordError("cleanup", "", purgeErr)
	}
	s.log.Info().Int("removed", removed).Msg("disposable entries purged")

	if err := set(key, value); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("write failed after cleanup")
		s.recordError("retry", key, err)
		s.metrics.RecordStoreWrite(key, metrics.ResultQuota)
		s.refreshUsage()
		return false
	}
	s.metrics.RecordStoreWrite(key, metrics.ResultRecovered)
	s.refreshUsage()
	return true
}

func (s *Store) remove(key string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.backing.Remove(key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("remove failed")
		s.recordError("remove", key, err)
		return false
	}
	s.refreshUsage()
	return true
}

func (s *Store) refreshUsage() {
	if s.metrics == nil {
		return
	}
	if used, err := storage.Used(s.backing); err == nil {
		s.metrics.SetStorageUsed(used)
	}
}
