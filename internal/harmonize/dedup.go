package harmonize

import (
	"sort"
	"strings"
	"time"

	"github.com/voicecatalog/harmonizer/internal/model"
)

// timestampLayouts are the collected_at spellings seen across collectors.
// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// VoiceKey builds the catalog identity key engine::platform::id. The
// platform must already be canonical.
func VoiceKey(r model.VoiceRecord) string {
	return strings.ToLower(strings.TrimSpace(r.Engine)) + "::" +
		strings.ToLower(strings.TrimSpace(r.Platform)) + "::" +
		strings.TrimSpace(r.ID)
}

// ParseCollectedAt parses an ISO-8601 timestamp. ok is false when the value
// is missing or unparseable; such records lose every newest-wins contest.
func ParseCollectedAt(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Deduplicate collapses records sharing a voice key, keeping the most
// recently collected one. Records without an id are dropped. On equal or
// unparseable timestamps the first record seen is kept. The result is sorted
// by platform, engine and name.
func Deduplicate(records []model.VoiceRecord) []model.VoiceRecord {
	type entry struct {
		rec   model.VoiceRecord
		at    time.Time
		valid bool
	}
	byKey := make(map[string]int)
	var kept []entry

	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		at, valid := ParseCollectedAt(r.CollectedAt)
		key := VoiceKey(r)
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(kept)
			kept = append(kept, entry{rec: r, at: at, valid: valid})
			continue
		}
		cur := kept[idx]
		if valid && (!cur.valid || at.After(cur.at)) {
			kept[idx] = entry{rec: r, at: at, valid: valid}
		}
	}

	out := make([]model.VoiceRecord, len(kept))
	for i, e := range kept {
		out[i] = e.rec
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		if a.Engine != b.Engine {
			return a.Engine < b.Engine
		}
		return a.Name < b.Name
	})
	return out
}
