package reference

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/voicecatalog/harmonizer/internal/engine"
)

// AcapelaKey indexes the Acapela preview list by lowercased voice name and
// primary language.
type AcapelaKey struct {
	Name     string
	Language string
}

// AcapelaPreview is one scraped Acapela demo entry.
type AcapelaPreview struct {
	Name         string
	Language     string
	PreviewAudio string
	Quality      string
	Gender       string
}

// AudioKey indexes the cross-engine audio preview index.
type AudioKey struct {
	Engine  string
	VoiceID string
}

// AudioEntry is one preview clip in the audio index.
type AudioEntry struct {
	LanguageCode string `json:"language_code"`
	Engine       string `json:"engine"`
	EngineNorm   string `json:"engine_norm"`
	VoiceID      string `json:"voice_id"`
	VoiceIDNorm  string `json:"voice_id_norm"`
	URL          string `json:"url"`
}

// LoadAzurePreviews reads the Azure voice name to preview URL map.
func LoadAzurePreviews(path string) (map[string]string, error) {
	var raw any
	out := map[string]string{}
	if found, err := readJSON(path, &raw); err != nil || !found {
		return out, err
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return out, nil
	}
	for name, url := range m {
		out[name] = cast.ToString(url)
	}
	return out, nil
}

// LoadAcapelaPreviews reads the Acapela preview list. Entries without a name
// or language cannot be matched and are dropped.
func LoadAcapelaPreviews(path string) (map[AcapelaKey]AcapelaPreview, error) {
	var raw any
	out := map[AcapelaKey]AcapelaPreview{}
	if found, err := readJSON(path, &raw); err != nil || !found {
		return out, err
	}
	items, ok := raw.([]any)
	if !ok {
		return out, nil
	}
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := strings.TrimSpace(cast.ToString(item["name"]))
		var lang string
		if codes, ok := item["language_codes"].([]any); ok && len(codes) > 0 {
			lang = strings.TrimSpace(cast.ToString(codes[0]))
		}
		if name == "" || lang == "" {
			continue
		}
		key := AcapelaKey{Name: strings.ToLower(name), Language: strings.ToLower(lang)}
		out[key] = AcapelaPreview{
			Name:         name,
			Language:     lang,
			PreviewAudio: cast.ToString(item["preview_audio"]),
			Quality:      cast.ToString(item["quality"]),
			Gender:       cast.ToString(item["gender"]),
		}
	}
	return out, nil
}

// LookupAcapela finds an Acapela preview by voice name and primary language.
func (t *Tables) LookupAcapela(name, language string) (AcapelaPreview, bool) {
	p, ok := t.Acapela[AcapelaKey{
		Name:     strings.ToLower(strings.TrimSpace(name)),
		Language: strings.ToLower(strings.TrimSpace(language)),
	}]
	return p, ok
}

// LoadAudioIndex reads the audio preview index and groups entries by
// normalized engine and voice id.
func LoadAudioIndex(path string) (map[AudioKey][]AudioEntry, error) {
	var entries []AudioEntry
	out := map[AudioKey][]AudioEntry{}
	if found, err := readJSON(path, &entries); err != nil || !found {
		return out, err
	}
	for _, e := range entries {
		out[e.Key()] = append(out[e.Key()], e)
	}
	return out, nil
}

// Key returns the lookup key for an index entry.
func (e AudioEntry) Key() AudioKey {
	eng := e.EngineNorm
	if eng == "" {
		eng = e.Engine
	}
	return AudioKey{
		Engine:  engine.Normalize(eng),
		VoiceID: strings.ToLower(strings.TrimSpace(e.VoiceIDNorm)),
	}
}

// LookupAudio returns every indexed clip for an engine and voice id.
func (t *Tables) LookupAudio(engineName, voiceID string) []AudioEntry {
	return t.AudioIndex[AudioKey{Engine: engine.Normalize(engineName), VoiceID: engine.Token(voiceID)}]
}
