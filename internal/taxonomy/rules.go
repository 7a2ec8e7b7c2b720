// Package taxonomy classifies voices into runtime, provider, engine family,
// distribution channel and capability tags using an ordered rule cascade
// loaded from a YAML document.
package taxonomy

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/voicecatalog/harmonizer/internal/engine"
	"github.com/voicecatalog/harmonizer/internal/model"
)

// Document is the raw taxonomy map as written in voice-taxonomy-map.yaml.
// Rule bodies stay loosely typed because each rule carries an arbitrary
// subset of override fields.
type Document struct {
	Defaults        map[string]any   `yaml:"defaults"`
	VoiceKeyExact   []map[string]any `yaml:"voice_key_exact"`
	EngineIDExact   []map[string]any `yaml:"engine_id_exact"`
	IDOrNamePattern []map[string]any `yaml:"id_or_name_pattern"`
	EngineDefault   []map[string]any `yaml:"engine_default"`
	UseCaseProfiles []map[string]any `yaml:"use_case_profiles"`
}

// Override holds the taxonomy fields a rule sets. Nil fields are left
// untouched when the rule applies.
type Override struct {
	Runtime             *string
	Provider            *string
	EngineFamily        *string
	DistributionChannel *string
	CapabilityTags      []string
	HasCapabilityTags   bool
	Source              *string
	Confidence          *string
}

// Apply copies the set fields of o onto t.
func (o Override) Apply(t *model.Taxonomy) {
	if o.Runtime != nil {
		t.Runtime = *o.Runtime
	}
	if o.Provider != nil {
		t.Provider = *o.Provider
	}
	if o.EngineFamily != nil {
		t.EngineFamily = *o.EngineFamily
	}
	if o.DistributionChannel != nil {
		t.DistributionChannel = *o.DistributionChannel
	}
	if o.HasCapabilityTags {
		t.CapabilityTags = append([]string{}, o.CapabilityTags...)
	}
	if o.Source != nil {
		t.Source = *o.Source
	}
	if o.Confidence != nil {
		t.Confidence = *o.Confidence
	}
}

// Tier identifies which rule list produced a classification.
type Tier string

// Tiers in evaluation order.
const (
	TierVoiceKey      Tier = "voice_key_exact"
	TierEngineID      Tier = "engine_id_exact"
	TierPattern       Tier = "id_or_name_pattern"
	TierEngineDefault Tier = "engine_default"
	TierNone          Tier = ""
)

// Subject is the slice of a voice the rules match against.
type Subject struct {
	Key       string
	ID        string
	Name      string
	Engine    string
	Developer string
	ModelType string
}

// Rule is one compiled taxonomy rule.
type Rule struct {
	Tier     Tier
	Match    func(s Subject) bool
	Override Override
}

// UseCaseProfile maps a runtime to a use-case support level.
type UseCaseProfile struct {
	Runtime      string
	UseCase      string
	SupportLevel model.SupportLevel
	Notes        string
}

// Rules is a compiled, immutable taxonomy rule set.
type Rules struct {
	defaults model.Taxonomy
	tiers    [][]Rule
	profiles []UseCaseProfile
}

// BuiltinDefaults are the taxonomy values used when the document does not
// override them.
func BuiltinDefaults() model.Taxonomy {
	return model.Taxonomy{
		Runtime:             "Unknown",
		Provider:            "Unknown",
		EngineFamily:        "unknown",
		DistributionChannel: "online_api",
		CapabilityTags:      []string{},
		Source:              "heuristic",
		Confidence:          "low",
	}
}

// Empty returns a rule set with builtin defaults and no rules.
func Empty() *Rules {
	return &Rules{defaults: BuiltinDefaults()}
}

// LoadRules reads and compiles a taxonomy document. A missing file yields
// an empty rule set.
func LoadRules(filePath string) (*Rules, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read %s", filePath)
	}
	return ParseRules(data)
}

// ParseRules compiles a taxonomy document from YAML bytes.
func ParseRules(data []byte) (*Rules, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse document")
	}
	return Compile(doc), nil
}

// Compile turns a raw document into typed rule tiers. Rules with invalid
// regular expressions are logged and dropped.
func Compile(doc Document) *Rules {
	log := zap.L().With(zap.String("component", "taxonomy"))

	r := &Rules{defaults: BuiltinDefaults()}
	parseOverride(doc.Defaults).Apply(&r.defaults)

	var voiceKey []Rule
	for _, raw := range doc.VoiceKeyExact {
		key := strings.ToLower(str(raw["voice_key"]))
		voiceKey = append(voiceKey, Rule{
			Tier:     TierVoiceKey,
			Match:    func(s Subject) bool { return strings.ToLower(s.Key) == key },
			Override: parseOverride(raw),
		})
	}

	var engineID []Rule
	for _, raw := range doc.EngineIDExact {
		ruleEngine := str(raw["engine"])
		glob := compileGlob(str(raw["id"]))
		engineID = append(engineID, Rule{
			Tier: TierEngineID,
			Match: func(s Subject) bool {
				return matchEngine(ruleEngine, s.Engine) && (glob == nil || glob.MatchString(strings.ToLower(s.ID)))
			},
			Override: parseOverride(raw),
		})
	}

	var patterns []Rule
	for i, raw := range doc.IDOrNamePattern {
		when, ok := raw["when"].(map[string]any)
		if !ok {
			continue
		}
		set, ok := raw["set"].(map[string]any)
		if !ok {
			continue
		}
		idRe, err := compileOptional(str(when["id_regex"]))
		if err != nil {
			log.Warn("skipping pattern rule with invalid id_regex", zap.Int("rule", i), zap.Error(err))
			continue
		}
		nameRe, err := compileOptional(str(when["name_regex"]))
		if err != nil {
			log.Warn("skipping pattern rule with invalid name_regex", zap.Int("rule", i), zap.Error(err))
			continue
		}
		ruleEngine := str(when["engine"])
		patterns = append(patterns, Rule{
			Tier: TierPattern,
			Match: func(s Subject) bool {
				if !matchEngine(ruleEngine, s.Engine) {
					return false
				}
				return (idRe != nil && idRe.MatchString(s.ID)) ||
					(nameRe != nil && nameRe.MatchString(s.Name))
			},
			Override: parseOverride(set),
		})
	}

	var engineDefault []Rule
	for _, raw := range doc.EngineDefault {
		ruleEngine := str(raw["engine"])
		engineDefault = append(engineDefault, Rule{
			Tier:     TierEngineDefault,
			Match:    func(s Subject) bool { return matchEngine(ruleEngine, s.Engine) },
			Override: parseOverride(raw),
		})
	}

	r.tiers = [][]Rule{voiceKey, engineID, patterns, engineDefault}

	for _, raw := range doc.UseCaseProfiles {
		useCase := strings.ToLower(strings.TrimSpace(str(raw["use_case"])))
		if useCase == "" {
			continue
		}
		r.profiles = append(r.profiles, UseCaseProfile{
			Runtime:      str(raw["runtime"]),
			UseCase:      useCase,
			SupportLevel: model.ParseSupportLevel(str(raw["support_level"])),
			Notes:        strings.TrimSpace(str(raw["notes"])),
		})
	}

	return r
}

// Defaults returns a copy of the seeded taxonomy values.
func (r *Rules) Defaults() model.Taxonomy {
	d := r.defaults
	d.CapabilityTags = append([]string{}, r.defaults.CapabilityTags...)
	return d
}

func parseOverride(raw map[string]any) Override {
	var o Override
	if raw == nil {
		return o
	}
	if v, ok := raw["runtime"]; ok {
		o.Runtime = strPtr(v)
	}
	if v, ok := raw["provider"]; ok {
		o.Provider = strPtr(v)
	}
	if v, ok := raw["engine_family"]; ok {
		o.EngineFamily = strPtr(v)
	}
	if v, ok := raw["distribution_channel"]; ok {
		o.DistributionChannel = strPtr(v)
	}
	if v, ok := raw["capability_tags"]; ok {
		o.CapabilityTags = AsStringList(v)
		o.HasCapabilityTags = true
	}
	if v, ok := raw["taxonomy_source"]; ok {
		o.Source = strPtr(v)
	}
	if v, ok := raw["taxonomy_confidence"]; ok {
		o.Confidence = strPtr(v)
	}
	return o
}

// AsStringList coerces a YAML value to a list of non-empty trimmed strings.
// A single string becomes a one-item list; other scalars become empty.
func AsStringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// matchEngine treats an empty rule engine as a wildcard.
func matchEngine(ruleEngine, voiceEngine string) bool {
	if ruleEngine == "" {
		return true
	}
	return engine.Token(ruleEngine) == engine.Token(voiceEngine)
}

func compileOptional(expr string) (*regexp.Regexp, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile(expr)
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

func strPtr(v any) *string {
	s := str(v)
	return &s
}
