// Package codec converts roomchat entities to and from the string form kept
// in the key-value backing. Decode is total: bad input yields the default.
package codec

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Encode serializes v. Well-typed entities (rooms, settings, ids) always
// marshal; a marshal failure means a programming error and yields "null".
func Encode[T any](v T) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// Decode parses raw into a T. Missing (present=false), empty, null or
// malformed input logs a diagnostic and returns def. Object fields absent
// from raw keep their values from def.
func Decode[T any](log zerolog.Logger, key string, raw string, present bool, def T) T {
	trimmed := bytes.TrimSpace([]byte(raw))
	if !present || len(trimmed) == 0 {
		log.Debug().Str("key", key).Msg("no stored value, using default")
		return def
	}
	if bytes.Equal(trimmed, []byte("null")) {
		log.Warn().Str("key", key).Msg("stored value is null, using default")
		return def
	}
	out := def
	if err := json.Unmarshal(trimmed, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Int("bytes", len(raw)).Msg("stored value is malformed, using default")
		return def
	}
	return out
}
