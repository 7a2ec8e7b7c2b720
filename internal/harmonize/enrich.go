package harmonize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
	"github.com/voicecatalog/harmonizer/internal/taxonomy"
)

// Provenance defaults for records that do not state their origin.
const (
	DefaultSourceType = "runtime"
	DefaultSourceName = "py3-tts-wrapper"
)

// Enricher adds language, geo, preview, provenance and taxonomy data to
// deduplicated records. It only reads its reference tables.
type Enricher struct {
	refs       *reference.Tables
	sourceName string
	log        *zap.Logger
}

// NewEnricher creates an Enricher. An empty sourceName falls back to
// DefaultSourceName; nil refs behave as empty tables.
func NewEnricher(refs *reference.Tables, sourceName string) *Enricher {
	if refs == nil {
		refs = reference.Empty()
	}
	if sourceName == "" {
		sourceName = DefaultSourceName
	}
	return &Enricher{
		refs:       refs,
		sourceName: sourceName,
		log:        zap.L().With(zap.String("component", "harmonize.enrich")),
	}
}

// Enrich returns one canonical voice per record, in input order. It never
// fails: a voice whose enrichment breaks keeps its record data with default
// taxonomy.
func (e *Enricher) Enrich(records []model.VoiceRecord) []model.Voice {
	out := make([]model.Voice, 0, len(records))
	var langFailures int
	for _, r := range records {
		v, langOK := e.enrichOne(r)
		if !langOK {
			langFailures++
		}
		out = append(out, v)
	}
	e.log.Info("voices enriched",
		zap.Int("voices", len(out)),
		zap.Int("language_failures", langFailures),
	)
	return out
}

func (e *Enricher) enrichOne(r model.VoiceRecord) (v model.Voice, langOK bool) {
	key := VoiceKey(r)
	defer func() {
		if p := recover(); p != nil {
			e.log.Warn("enrichment failed, keeping defaults",
				zap.String("voice_key", key),
				zap.String("panic", fmt.Sprint(p)),
			)
			v = e.fallback(r, key)
			langOK = false
		}
	}()

	v = e.fallback(r, key)
	primary := SanitizeTag(r.PrimaryLanguage())

	info, err := ResolveLanguage(primary)
	langOK = err == nil
	if err != nil {
		e.log.Warn("language resolution failed",
			zap.String("voice_key", key),
			zap.String("language", r.PrimaryLanguage()),
			zap.Error(err),
		)
	}
	v.LanguageInfo = info

	if geo, ok := e.refs.LookupGeo(primary); ok {
		v.GeoInfo = geo
	}

	resolvePreviews(&v, primary, e.refs)

	tax, _ := e.refs.Taxonomy.Classify(taxonomy.Subject{
		Key:       key,
		ID:        r.ID,
		Name:      r.Name,
		Engine:    r.Engine,
		Developer: r.Developer,
		ModelType: r.ModelType,
	})
	if tax.CapabilityTags == nil {
		tax.CapabilityTags = []string{}
	}
	v.Taxonomy = tax
	v.UseCases = e.refs.Taxonomy.UseCases(tax.Runtime, tax.CapabilityTags)
	for i := range v.UseCases {
		v.UseCases[i].VoiceKey = key
	}
	return v, langOK
}

// fallback is the voice with record data, provenance defaults and default
// taxonomy only.
func (e *Enricher) fallback(r model.VoiceRecord, key string) model.Voice {
	r.Gender = model.NormalizeGender(r.Gender)
	if r.SourceType == "" {
		r.SourceType = DefaultSourceType
	}
	if r.SourceName == "" {
		r.SourceName = e.sourceName
	}
	if r.LanguageCodes == nil {
		r.LanguageCodes = []string{}
	}
	return model.Voice{
		VoiceRecord: r,
		Key:         key,
		Taxonomy:    e.refs.Taxonomy.Defaults(),
		UseCases:    []model.UseCaseSupport{},
	}
}
