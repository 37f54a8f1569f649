package roomstore

import "time"

// maxErrorLogs 错误日志上限 / error log capacity
const maxErrorLogs = 50

// ErrorLog is one storage failure. The log lives in memory only.
type ErrorLog struct {
	Time  time.Time
	Op    string
	Key   string
	Error string
}

func (s *Store) recordError(op, key string, err error) {
	entry := ErrorLog{Time: s.now(), Op: op, Key: key, Error: err.Error()}

	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.errLog = append([]ErrorLog{entry}, s.errLog...)
	if len(s.errLog) > maxErrorLogs {
		s.errLog = s.errLog[:maxErrorLogs]
	}
}

// ErrorLogs returns the recorded failures, newest first.
func (s *Store) ErrorLogs() []ErrorLog {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]ErrorLog(nil), s.errLog...)
}

// ClearErrorLogs empties the error log.
func (s *Store) ClearErrorLogs() {
	s.logMu.Lock()
	s.errLog = nil
	s.logMu.Unlock()
}
