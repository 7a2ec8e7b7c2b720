package reference

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/voicecatalog/harmonizer/internal/model"
)

// LoadGeo reads geo-data.json, a list of objects keyed by language_id.
func LoadGeo(path string) (map[string]model.GeoInfo, error) {
	var items []any
	out := map[string]model.GeoInfo{}
	if found, err := readJSON(path, &items); err != nil || !found {
		return out, err
	}
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := optString(item["language_id"])
		if id == nil {
			continue
		}
		out[*id] = model.GeoInfo{
			Latitude:      optFloat(item["latitude"]),
			Longitude:     optFloat(item["longitude"]),
			Country:       optString(item["country"]),
			Region:        optString(item["region"]),
			WrittenScript: optString(item["written_script"]),
		}
	}
	return out, nil
}

// LookupGeo finds geo data by exact language tag, retrying with
// underscores in place of hyphens.
func (t *Tables) LookupGeo(tag string) (model.GeoInfo, bool) {
	if tag == "" {
		return model.GeoInfo{}, false
	}
	if g, ok := t.Geo[tag]; ok {
		return g, true
	}
	g, ok := t.Geo[strings.ReplaceAll(tag, "-", "_")]
	return g, ok
}

// optString returns nil for JSON null or an empty string.
func optString(v any) *string {
	if v == nil {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return nil
	}
	return &s
}

func optFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}
