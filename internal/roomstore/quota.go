package roomstore

import (
	"math"

	"roomchat/internal/storage"
)

// Quota thresholds in percent of capacity.
const (
	NearLimitPercent = 80
	OverLimitPercent = 95
)

// Usage is the byte estimate of the backing.
type Usage struct {
	Used  int64
	Total int64
}

// Quota is the threshold view of Usage.
type Quota struct {
	Percent   int
	NearLimit bool
	OverLimit bool
}

// Usage sums the UTF-16 cost of every entry. Failures report zero use.
func (s *Store) Usage() Usage {
	u := Usage{Total: s.backing.Capacity()}
	used, err := storage.Used(s.backing)
	if err != nil {
		s.log.Error().Err(err).Msg("compute storage usage failed")
		return u
	}
	u.Used = used
	return u
}

// Percent is Used/Total rounded to the nearest integer percent.
func (u Usage) Percent() int {
	if u.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(u.Used) / float64(u.Total) * 100))
}

// UsagePercent returns the rounded usage percentage.
func (s *Store) UsagePercent() int {
	return s.Usage().Percent()
}

// CheckQuota evaluates the near/over limit thresholds.
func (s *Store) CheckQuota() Quota {
	p := s.UsagePercent()
	return Quota{
		Percent:   p,
		NearLimit: p >= NearLimitPercent,
		OverLimit: p >= OverLimitPercent,
	}
}

// Cleanup purges disposable entries and returns how many were removed.
func (s *Store) Cleanup() int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	removed, err := storage.PurgeDisposable(s.backing)
	if err != nil {
		s.log.Error().Err(err).Msg("purge disposable entries failed")
		s.recordError("cleanup", "", err)
	}
	s.refreshUsage()
	return removed
}
