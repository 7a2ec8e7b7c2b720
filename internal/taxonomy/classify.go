package taxonomy

import (
	"sort"
	"strings"

	"github.com/voicecatalog/harmonizer/internal/engine"
	"github.com/voicecatalog/harmonizer/internal/model"
)

var sherpaProviders = map[string]string{
	"mms":     "Meta",
	"meta":    "Meta",
	"piper":   "Piper",
	"coqui":   "Coqui",
	"kokoro":  "Kokoro",
	"k2fsa":   "k2-fsa",
	"icefall": "k2-fsa",
	"mimic3":  "Mimic3",
	"melotts": "MeloTTS",
}

var sherpaFamilies = map[string]string{
	"mms":    "mms-tts",
	"mmstts": "mms-tts",
	"coqui":  "coqui-tts",
	"piper":  "piper",
	"vits":   "vits",
	"matcha": "matcha",
	"kokoro": "kokoro",
}

// capabilityUseCases maps capability tag tokens to the use case they imply.
var capabilityUseCases = map[string]string{
	"screenreadercompatible": "screenreader",
	"aaccompatible":          "aac",
}

// Use-case row sources.
const (
	SourceProfile        = "taxonomy_profile"
	SourceCapabilityTags = "capability_tags"
	SourceProfileAndTags = "taxonomy_profile+tags"
	tagDerivedNote       = "Derived from capability tags"
)

// NormalizeProvider maps a Sherpa-ONNX developer string onto a provider name.
func NormalizeProvider(developer string) string {
	if p, ok := sherpaProviders[engine.Token(developer)]; ok {
		return p
	}
	if s := strings.TrimSpace(developer); s != "" {
		return s
	}
	return "Unknown"
}

// NormalizeEngineFamily maps a Sherpa-ONNX model type onto an engine family.
func NormalizeEngineFamily(modelType string) string {
	if f, ok := sherpaFamilies[engine.Token(modelType)]; ok {
		return f
	}
	if s := strings.ToLower(strings.TrimSpace(modelType)); s != "" {
		return s
	}
	return "unknown"
}

// Classify resolves the taxonomy of a voice. The first matching tier wins
// and no later tier is consulted; TierNone means only defaults (and the
// Sherpa-ONNX metadata adjustment) apply.
func (r *Rules) Classify(s Subject) (model.Taxonomy, Tier) {
	out := r.Defaults()

	if engine.Token(s.Engine) == engine.SherpaONNX {
		if dev := strings.TrimSpace(s.Developer); dev != "" {
			out.Provider = NormalizeProvider(dev)
			out.Source = "heuristic"
			out.Confidence = "medium"
		}
		if mt := strings.TrimSpace(s.ModelType); mt != "" {
			out.EngineFamily = NormalizeEngineFamily(mt)
			out.Source = "heuristic"
			out.Confidence = "medium"
		}
	}

	for _, tier := range r.tiers {
		for _, rule := range tier {
			if rule.Match(s) {
				rule.Override.Apply(&out)
				return out, rule.Tier
			}
		}
	}
	return out, TierNone
}

// UseCases derives use-case support rows for a classified voice. Profiles
// whose runtime matches contribute their level; screenreader/AAC capability
// tags add or upgrade a compatible row. Rows are ordered by use case id.
func (r *Rules) UseCases(runtime string, capabilityTags []string) []model.UseCaseSupport {
	rows := make(map[string]*model.UseCaseSupport)
	runtimeToken := engine.Token(runtime)

	for _, p := range r.profiles {
		if engine.Token(p.Runtime) != runtimeToken {
			continue
		}
		rows[p.UseCase] = &model.UseCaseSupport{
			UseCaseID:    p.UseCase,
			SupportLevel: p.SupportLevel,
			Notes:        p.Notes,
			Source:       SourceProfile,
		}
	}

	for _, tag := range capabilityTags {
		useCase, ok := capabilityUseCases[engine.Token(tag)]
		if !ok {
			continue
		}
		existing, ok := rows[useCase]
		if !ok {
			rows[useCase] = &model.UseCaseSupport{
				UseCaseID:    useCase,
				SupportLevel: model.SupportCompatible,
				Notes:        tagDerivedNote,
				Source:       SourceCapabilityTags,
			}
			continue
		}
		existing.SupportLevel = model.BestSupportLevel(existing.SupportLevel, model.SupportCompatible)
		if existing.Notes == "" {
			existing.Notes = tagDerivedNote
		}
		if existing.Source == SourceProfile {
			existing.Source = SourceProfileAndTags
		}
	}

	out := make([]model.UseCaseSupport, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UseCaseID < out[j].UseCaseID })
	return out
}
