// Package legacy converts static legacy voice dumps into raw voice files
// the harmonizer can load.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

// SourceTypeStatic marks records converted from static dumps.
const SourceTypeStatic = "static"

// skippedStem is covered by the live Windows SAPI collector.
const skippedStem = "microsoft-sapi"

// Voice is one converted record in the raw schema. Optional values are
// copied through untouched.
type Voice struct {
	ID            any    `json:"id"`
	Name          any    `json:"name"`
	LanguageCodes any    `json:"language_codes"`
	Gender        string `json:"gender"`
	Engine        string `json:"engine"`
	Platform      string `json:"platform"`
	CollectedAt   string `json:"collected_at"`
	SourceType    string `json:"source_type"`
	SourceName    string `json:"source_name"`
	PreviewAudio  any    `json:"preview_audio,omitempty"`
	Quality       any    `json:"quality,omitempty"`
	Styles        any    `json:"styles,omitempty"`
	Software      any    `json:"software,omitempty"`
	Age           any    `json:"age,omitempty"`
}

// FileResult reports one converted file.
type FileResult struct {
	Source string
	Output string
	Count  int
}

// InferEngine derives the engine and platform from a legacy file name.
func InferEngine(filename string) (engineName, platform string) {
	stem := strings.TrimSuffix(filename, ".json")
	switch {
	case stem == "avsynth":
		return "AVSynth", "macos"
	case stem == "espeak":
		return "eSpeak", "linux"
	case strings.Contains(stem, "sapi"):
		return capitalize(strings.SplitN(stem, "-", 2)[0]) + " SAPI", "windows"
	case strings.Contains(stem, "-"):
		return capitalize(strings.SplitN(stem, "-", 2)[0]), "windows"
	}
	return capitalize(stem), "windows"
}

// ConvertFile converts one legacy dump into dstDir/static-<stem>-voices.json.
// An existing output with more records is kept; the returned count is what
// is on disk afterwards. Non-list dumps produce nothing.
func ConvertFile(src, dstDir string, now time.Time) (FileResult, error) {
	name := filepath.Base(src)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	res := FileResult{Source: name, Output: filepath.Join(dstDir, "static-"+stem+"-voices.json")}

	data, err := os.ReadFile(src)
	if err != nil {
		return res, eris.Wrapf(err, "legacy: read %s", name)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return res, eris.Wrapf(err, "legacy: parse %s", name)
	}
	items, ok := payload.([]any)
	if !ok {
		return res, nil
	}

	engineName, platform := InferEngine(name)
	collectedAt := now.UTC().Format(time.RFC3339)
	out := make([]Voice, 0, len(items))
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		v := Voice{
			ID:            valueOr(item, "id", ""),
			Name:          valueOr(item, "name", "Unknown"),
			LanguageCodes: valueOr(item, "language_codes", []any{}),
			Gender:        model.NormalizeGender(genderText(item["gender"])),
			Engine:        engineName,
			Platform:      platform,
			CollectedAt:   collectedAt,
			SourceType:    SourceTypeStatic,
			SourceName:    name,
			PreviewAudio:  item["preview_audio"],
			Quality:       item["quality"],
			Styles:        item["styles"],
			Software:      item["software"],
			Age:           item["age"],
		}
		out = append(out, v)
	}

	res.Count, err = reference.WriteListIfNotShorter(res.Output, out)
	if err != nil {
		return res, eris.Wrapf(err, "legacy: write %s", filepath.Base(res.Output))
	}
	if res.Count > len(out) {
		zap.L().Info("legacy: keeping larger existing output",
			zap.String("output", filepath.Base(res.Output)),
			zap.Int("existing", res.Count),
			zap.Int("new", len(out)),
		)
	}
	return res, nil
}

// ConvertDir converts every *.json dump in srcDir into dstDir. A missing
// source directory converts nothing. Files that fail are logged and
// skipped.
func ConvertDir(srcDir, dstDir string, now time.Time) ([]FileResult, error) {
	log := zap.L().With(zap.String("component", "legacy"), zap.String("dir", srcDir))
	if _, err := os.Stat(srcDir); errors.Is(err, fs.ErrNotExist) {
		log.Info("legacy directory not found, skipping")
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(srcDir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "legacy: list files")
	}
	sort.Strings(files)
	if len(files) == 0 {
		log.Info("no legacy files found")
		return nil, nil
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "legacy: create %s", dstDir)
	}

	var results []FileResult
	for _, src := range files {
		if strings.TrimSuffix(filepath.Base(src), ".json") == skippedStem {
			log.Info("skipping file covered by runtime collection", zap.String("file", filepath.Base(src)))
			continue
		}
		res, err := ConvertFile(src, dstDir, now)
		if err != nil {
			log.Warn("legacy conversion failed", zap.String("file", filepath.Base(src)), zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func valueOr(item map[string]any, key string, def any) any {
	if v, ok := item[key]; ok {
		return v
	}
	return def
}

func genderText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
