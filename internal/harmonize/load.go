// Package harmonize turns raw per-source voice dumps into the canonical
// voice catalog: loading, deduplication, enrichment and classification.
package harmonize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/engine"
	"github.com/voicecatalog/harmonizer/internal/model"
)

// LoadReport summarizes one pass over the raw directory.
type LoadReport struct {
	Files           int `json:"files"`
	FailedFiles     int `json:"failed_files"`
	RecoveredBlocks int `json:"recovered_blocks"`
	SkippedPayloads int `json:"skipped_payloads"`
	Records         int `json:"records"`
}

// LoadRawDir reads every *.json file under root, in lexical walk order, and
// returns the voice records they contain with canonical platforms. Bad
// files and payloads are logged and skipped. A missing root yields nothing.
func LoadRawDir(root string) ([]model.VoiceRecord, LoadReport) {
	log := zap.L().With(zap.String("component", "harmonize.load"), zap.String("dir", root))
	var report LoadReport
	var records []model.VoiceRecord

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		log.Warn("raw directory does not exist")
		return records, report
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("walk error, skipping entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		report.Files++

		data, err := os.ReadFile(path)
		if err != nil {
			report.FailedFiles++
			log.Warn("read failed, skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		payloads, err := decodePayloads(data)
		if err != nil {
			report.FailedFiles++
			log.Warn("invalid JSON, skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if len(payloads) > 1 {
			report.RecoveredBlocks += len(payloads)
			log.Warn("recovered concatenated JSON blocks",
				zap.String("file", path),
				zap.Int("blocks", len(payloads)),
			)
		}

		for _, payload := range payloads {
			items, ok := payload.([]any)
			if !ok {
				report.SkippedPayloads++
				log.Warn("payload is not a list, skipping", zap.String("file", path))
				continue
			}
			for _, it := range items {
				item, ok := it.(map[string]any)
				if !ok {
					continue
				}
				rec := DecodeRecord(item)
				rec.Platform = engine.CanonicalPlatform(rec.Platform, rec.Engine)
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("walk aborted", zap.Error(err))
	}

	report.Records = len(records)
	log.Info("raw records loaded",
		zap.Int("files", report.Files),
		zap.Int("failed_files", report.FailedFiles),
		zap.Int("records", report.Records),
	)
	return records, report
}

// decodePayloads decodes every JSON value in data. A file holding exactly one
// value is the normal case; several whitespace-separated values are the
// concatenated output of an earlier run. Any undecodable value fails the
// whole file.
func decodePayloads(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out []any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "harmonize: decode block %d", len(out)+1)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, eris.New("harmonize: empty document")
	}
	return out, nil
}

// DecodeRecord maps one loosely typed JSON object onto a VoiceRecord.
// Scalars are coerced to strings, and a bare language code or style string
// is wrapped into a list.
func DecodeRecord(item map[string]any) model.VoiceRecord {
	return model.VoiceRecord{
		ID:            text(item["id"]),
		Name:          text(item["name"]),
		LanguageCodes: stringList(item["language_codes"]),
		Gender:        text(item["gender"]),
		Engine:        text(item["engine"]),
		Platform:      text(item["platform"]),
		CollectedAt:   text(item["collected_at"]),
		PreviewAudio:  text(item["preview_audio"]),
		Quality:       text(item["quality"]),
		Styles:        stringList(item["styles"]),
		Software:      text(item["software"]),
		Age:           text(item["age"]),
		ModelType:     text(item["model_type"]),
		Developer:     text(item["developer"]),
		NumSpeakers:   optInt(item["num_speakers"]),
		SampleRate:    optInt(item["sample_rate"]),
		SourceType:    text(item["source_type"]),
		SourceName:    text(item["source_name"]),
	}
}

func text(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func stringList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, it := range x {
			if s := text(it); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func optInt(v any) *int {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &n
}
