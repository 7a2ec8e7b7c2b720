package reference

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/voicecatalog/harmonizer/internal/engine"
)

var audioFileRe = regexp.MustCompile(`(?i)^(?P<lang>[^_]+)_(?P<engine>[^_]+)_(?P<voice>.+)\.wav$`)

// BuildAudioIndex scans audioDir for <lang>_<engine>_<voice>.wav clips and
// returns index entries whose URLs are rooted at urlBase. Entries are
// ordered by file name.
func BuildAudioIndex(audioDir, urlBase string) ([]AudioEntry, error) {
	files, err := os.ReadDir(audioDir)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read audio dir %s", audioDir)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	base := strings.TrimRight(urlBase, "/")
	entries := []AudioEntry{}
	for _, name := range names {
		m := audioFileRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		eng, voice := m[2], m[3]
		entries = append(entries, AudioEntry{
			LanguageCode: m[1],
			Engine:       eng,
			EngineNorm:   engine.Token(eng),
			VoiceID:      voice,
			VoiceIDNorm:  engine.Token(voice),
			URL:          base + "/" + name,
		})
	}
	return entries, nil
}

// WriteListIfNotShorter writes a JSON list to path unless an existing list
// there has more entries. It returns the entry count left on disk.
func WriteListIfNotShorter[T any](path string, items []T) (int, error) {
	if existing, ok := existingListLen(path); ok && len(items) < existing {
		return existing, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrapf(err, "reference: create dir for %s", path)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, eris.Wrap(err, "reference: marshal list")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, eris.Wrapf(err, "reference: write %s", path)
	}
	return len(items), nil
}

func existingListLen(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, false
	}
	return len(items), true
}
