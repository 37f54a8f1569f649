package roomstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"roomchat/internal/chat"
)

// ErrInvalidImport 导入数据不是 JSON 对象 / import data is not a JSON object
var ErrInvalidImport = errors.New("invalid import data")

// isoMillis matches JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Export builds a backup snapshot. The credential is always blanked.
func Export(rooms []chat.Room, settings chat.Settings, now time.Time) chat.ExportData {
	settings = cloneSettings(settings)
	settings.APIKey = ""
	rooms = chat.CloneRooms(rooms)
	if rooms == nil {
		rooms = []chat.Room{}
	}
	return chat.ExportData{
		Rooms:      rooms,
		Settings:   settings,
		ExportedAt: now.UTC().Format(isoMillis),
		Version:    chat.ExportVersion,
	}
}

// WriteExport writes data as indented JSON.
func WriteExport(w io.Writer, data chat.ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ExportFileName is the suggested backup file name for now.
func ExportFileName(now time.Time) string {
	return "roomchat-backup-" + now.Format("2006-01-02") + ".json"
}

// ImportResult reports what an import changed.
type ImportResult struct {
	Rooms           int
	RoomsSaved      bool
	SettingsFound   bool
	SettingsSaved   bool
	VersionMismatch bool
}

// Import restores a backup produced by Export. Input that is not a JSON
// object is rejected; a different version only logs a warning. Imported
// settings never overwrite the current credential.
func Import(r io.Reader, rooms *RoomStore, settings *SettingsStore) (ImportResult, error) {
	var res ImportResult
	data, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("read import: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return res, ErrInvalidImport
	}

	var version string
	if raw, ok := doc["version"]; ok {
		_ = json.Unmarshal(raw, &version)
	}
	if version != "" && version != chat.ExportVersion {
		res.VersionMismatch = true
		rooms.log.Warn().Str("version", version).Str("expected", chat.ExportVersion).Msg("import version mismatch")
	}

	if raw, ok := doc["rooms"]; ok {
		var imported []chat.Room
		if err := json.Unmarshal(raw, &imported); err != nil || imported == nil {
			rooms.log.Warn().Err(err).Msg("import rooms is not a room array, skipped")
		} else {
			res.Rooms = len(imported)
			res.RoomsSaved = rooms.SaveRooms(imported)
			current := rooms.CurrentRoomID()
			if _, found := rooms.Room(current); !found {
				next := ""
				if len(imported) > 0 {
					next = imported[0].ID
				}
				rooms.SaveCurrentRoomID(next)
			}
		}
	}

	if raw, ok := doc["settings"]; ok {
		current := settings.Settings()
		merged := current
		if err := json.Unmarshal(raw, &merged); err != nil || string(raw) == "null" {
			rooms.log.Warn().Err(err).Msg("import settings is not an object, skipped")
		} else {
			merged.APIKey = current.APIKey
			res.SettingsFound = true
			res.SettingsSaved = settings.SaveSettings(merged)
		}
	}

	rooms.log.Info().Int("rooms", res.Rooms).Bool("settings", res.SettingsFound).Msg("import finished")
	return res, nil
}
