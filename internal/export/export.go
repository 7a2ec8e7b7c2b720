// Package export builds the static site payload from a catalog store.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/engine"
	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

// UnknownCountry is the country code for voices without a territory.
const UnknownCountry = "ZZ"

// Payload is the site JSON document.
type Payload struct {
	GeneratedAt             time.Time                  `json:"generated_at"`
	Summary                 Summary                    `json:"summary"`
	Facets                  Facets                     `json:"facets"`
	Solutions               []model.Solution           `json:"solutions"`
	SolutionMatches         []model.SolutionVoiceMatch `json:"solution_matches"`
	SolutionRuntimeSupport  []model.RuntimeSupport     `json:"solution_runtime_support"`
	SolutionProviderSupport []model.ProviderSupport    `json:"solution_provider_support"`
	PopulationByCountry     map[string]int64           `json:"population_by_country"`
	Countries               []Country                  `json:"countries"`
	Voices                  []Voice                    `json:"voices"`
}

// Summary holds the headline counters. Coverage fields are nil when the
// matching reference dataset is unavailable.
type Summary struct {
	Voices               int            `json:"voices"`
	Platforms            map[string]int `json:"platforms"`
	Engines              int            `json:"engines"`
	Countries            int            `json:"countries"`
	Online               int            `json:"online"`
	Offline              int            `json:"offline"`
	Runtimes             int            `json:"runtimes"`
	Providers            int            `json:"providers"`
	EngineFamilies       int            `json:"engine_families"`
	DistributionChannels int            `json:"distribution_channels"`
	Solutions            int            `json:"solutions"`
	SolutionMatches      int            `json:"solution_matches"`

	WorldPopulationTotal      *int64   `json:"world_population_total,omitempty"`
	WorldPopulationCovered    *int64   `json:"world_population_covered,omitempty"`
	WorldPopulationCoveredPct *float64 `json:"world_population_covered_pct,omitempty"`
	LanguageSpeakersTotal     *int64   `json:"language_speakers_total,omitempty"`
	LanguageSpeakersCovered   *int64   `json:"language_speakers_covered,omitempty"`
	LanguageSpeakersPct       *float64 `json:"language_speakers_covered_pct,omitempty"`
	LanguagesCovered          *int     `json:"languages_covered,omitempty"`
}

// Facets are per-value voice counts.
type Facets struct {
	Platforms            map[string]int `json:"platforms"`
	Engines              map[string]int `json:"engines"`
	Genders              map[string]int `json:"genders"`
	Runtimes             map[string]int `json:"runtimes"`
	Providers            map[string]int `json:"providers"`
	EngineFamilies       map[string]int `json:"engine_families"`
	DistributionChannels map[string]int `json:"distribution_channels"`
}

// Country is the per-country rollup. Latitude and longitude are the mean
// over voices carrying coordinates, or nil when none do.
type Country struct {
	CountryCode  string   `json:"country_code"`
	CountryName  string   `json:"country_name"`
	Count        int      `json:"count"`
	OnlineCount  int      `json:"online_count"`
	OfflineCount int      `json:"offline_count"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Voice is the flattened per-voice record the site consumes.
type Voice struct {
	VoiceKey            string               `json:"voice_key"`
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	LanguageCodes       []string             `json:"language_codes"`
	Gender              string               `json:"gender"`
	Engine              string               `json:"engine"`
	Platform            string               `json:"platform"`
	PlatformDisplay     string               `json:"platform_display"`
	Mode                string               `json:"mode"`
	CountryCode         string               `json:"country_code"`
	CountryName         string               `json:"country_name"`
	Latitude            *float64             `json:"latitude"`
	Longitude           *float64             `json:"longitude"`
	LanguageName        *string              `json:"language_name"`
	LanguageDisplay     *string              `json:"language_display"`
	Script              *string              `json:"script"`
	GeoRegion           *string              `json:"geo_region"`
	WrittenScript       *string              `json:"written_script"`
	PreviewAudio        *string              `json:"preview_audio"`
	PreviewAudios       []model.PreviewAudio `json:"preview_audios"`
	Quality             *string              `json:"quality"`
	Styles              []string             `json:"styles"`
	Software            *string              `json:"software"`
	Age                 *string              `json:"age"`
	SourceType          *string              `json:"source_type"`
	SourceName          *string              `json:"source_name"`
	CollectedAt         string               `json:"collected_at"`
	Runtime             string               `json:"runtime"`
	Provider            string               `json:"provider"`
	EngineFamily        string               `json:"engine_family"`
	DistributionChannel string               `json:"distribution_channel"`
	CapabilityTags      []string             `json:"capability_tags"`
	TaxonomySource      string               `json:"taxonomy_source"`
	TaxonomyConfidence  string               `json:"taxonomy_confidence"`
}

// speakerAliases maps retired ISO 639-1 codes to their current form.
var speakerAliases = map[string]string{
	"iw": "he",
	"in": "id",
	"ji": "yi",
	"jw": "jv",
}

type countryAcc struct {
	Country
	points []float64
}

// Build reads the whole catalog and computes the site payload. refs
// supplies population and speaker tables for coverage; nil skips coverage.
func Build(ctx context.Context, r catalog.Reader, refs *reference.Tables, now time.Time) (*Payload, error) {
	voices, err := r.ListVoices(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list voices")
	}
	solutions, err := r.ListSolutions(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list solutions")
	}
	matches, err := r.ListMatches(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list matches")
	}
	runtimes, err := r.ListRuntimeSupport(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list runtime support")
	}
	providers, err := r.ListProviderSupport(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list provider support")
	}
	if refs == nil {
		refs = reference.Empty()
	}

	p := &Payload{
		GeneratedAt:             now.UTC(),
		Solutions:               nonNil(solutions),
		SolutionMatches:         nonNil(matches),
		SolutionRuntimeSupport:  nonNil(runtimes),
		SolutionProviderSupport: nonNil(providers),
		PopulationByCountry:     refs.Population,
		Voices:                  make([]Voice, 0, len(voices)),
		Facets: Facets{
			Platforms:            map[string]int{},
			Engines:              map[string]int{},
			Genders:              map[string]int{},
			Runtimes:             map[string]int{},
			Providers:            map[string]int{},
			EngineFamilies:       map[string]int{},
			DistributionChannels: map[string]int{},
		},
	}
	if p.PopulationByCountry == nil {
		p.PopulationByCountry = map[string]int64{}
	}

	countries := map[string]*countryAcc{}
	for _, v := range voices {
		fv := flatten(v)
		p.Voices = append(p.Voices, fv)

		p.Facets.Platforms[fv.Platform]++
		p.Facets.Engines[fv.Engine]++
		p.Facets.Genders[fv.Gender]++
		p.Facets.Runtimes[fv.Runtime]++
		p.Facets.Providers[fv.Provider]++
		p.Facets.EngineFamilies[fv.EngineFamily]++
		p.Facets.DistributionChannels[fv.DistributionChannel]++

		if fv.Mode == engine.ModeOnline {
			p.Summary.Online++
		} else {
			p.Summary.Offline++
		}

		c, ok := countries[fv.CountryCode]
		if !ok {
			c = &countryAcc{Country: Country{CountryCode: fv.CountryCode, CountryName: fv.CountryName}}
			countries[fv.CountryCode] = c
		}
		c.Count++
		if fv.Mode == engine.ModeOnline {
			c.OnlineCount++
		} else {
			c.OfflineCount++
		}
		if fv.Latitude != nil && fv.Longitude != nil {
			c.points = append(c.points, *fv.Longitude, *fv.Latitude)
		}
	}

	p.Countries = rollupCountries(countries)

	p.Summary.Voices = len(p.Voices)
	p.Summary.Platforms = p.Facets.Platforms
	p.Summary.Engines = len(p.Facets.Engines)
	p.Summary.Countries = len(p.Countries)
	p.Summary.Runtimes = len(p.Facets.Runtimes)
	p.Summary.Providers = len(p.Facets.Providers)
	p.Summary.EngineFamilies = len(p.Facets.EngineFamilies)
	p.Summary.DistributionChannels = len(p.Facets.DistributionChannels)
	p.Summary.Solutions = len(p.Solutions)
	p.Summary.SolutionMatches = len(p.SolutionMatches)

	populationCoverage(&p.Summary, p.Voices, refs.Population)
	speakerCoverage(&p.Summary, p.Voices, refs.Speakers)

	zap.L().Info("export: payload built",
		zap.Int("voices", p.Summary.Voices),
		zap.Int("countries", p.Summary.Countries),
		zap.Int("solution_matches", p.Summary.SolutionMatches),
	)
	return p, nil
}

func flatten(v model.Voice) Voice {
	platform := strings.ToLower(strings.TrimSpace(v.Platform))
	if platform == "" {
		platform = engine.PlatformUnknown
	}
	countryCode := UnknownCountry
	if v.CountryCode != nil && *v.CountryCode != "" {
		countryCode = strings.ToUpper(*v.CountryCode)
	}
	countryName := "Unknown"
	switch {
	case v.Country != nil && *v.Country != "":
		countryName = *v.Country
	case v.LanguageDisplay != nil && *v.LanguageDisplay != "":
		countryName = *v.LanguageDisplay
	}

	langs := v.LanguageCodes
	if langs == nil {
		langs = []string{}
	}
	styles := v.Styles
	if styles == nil {
		styles = []string{}
	}
	previews := v.PreviewAudios
	if previews == nil {
		previews = []model.PreviewAudio{}
	}
	tags := v.CapabilityTags
	if tags == nil {
		tags = []string{}
	}

	return Voice{
		VoiceKey:            v.Key,
		ID:                  v.ID,
		Name:                v.Name,
		LanguageCodes:       langs,
		Gender:              model.NormalizeGender(v.Gender),
		Engine:              v.Engine,
		Platform:            platform,
		PlatformDisplay:     engine.PlatformDisplay(platform, v.Engine),
		Mode:                engine.Mode(platform, v.Engine),
		CountryCode:         countryCode,
		CountryName:         countryName,
		Latitude:            v.Latitude,
		Longitude:           v.Longitude,
		LanguageName:        v.LanguageName,
		LanguageDisplay:     v.LanguageDisplay,
		Script:              v.Script,
		GeoRegion:           v.Region,
		WrittenScript:       v.WrittenScript,
		PreviewAudio:        optString(v.PreviewAudio),
		PreviewAudios:       previews,
		Quality:             optString(v.Quality),
		Styles:              styles,
		Software:            optString(v.Software),
		Age:                 optString(v.Age),
		SourceType:          optString(v.SourceType),
		SourceName:          optString(v.SourceName),
		CollectedAt:         v.CollectedAt,
		Runtime:             v.Runtime,
		Provider:            v.Provider,
		EngineFamily:        v.EngineFamily,
		DistributionChannel: v.DistributionChannel,
		CapabilityTags:      tags,
		TaxonomySource:      v.Taxonomy.Source,
		TaxonomyConfidence:  v.Confidence,
	}
}

// rollupCountries resolves centroids and orders countries by voice count,
// then code.
func rollupCountries(acc map[string]*countryAcc) []Country {
	out := make([]Country, 0, len(acc))
	for _, c := range acc {
		if len(c.points) > 0 {
			center := xy.PointsCentroidFlat(geom.XY, c.points)
			lon, lat := center.X(), center.Y()
			c.Longitude, c.Latitude = &lon, &lat
		}
		out = append(out, c.Country)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CountryCode < out[j].CountryCode
	})
	return out
}

func populationCoverage(s *Summary, voices []Voice, population map[string]int64) {
	if len(population) == 0 {
		return
	}
	var total, covered int64
	for _, n := range population {
		total += n
	}
	seen := map[string]bool{}
	for _, v := range voices {
		if seen[v.CountryCode] {
			continue
		}
		seen[v.CountryCode] = true
		covered += population[v.CountryCode]
	}
	s.WorldPopulationTotal = &total
	s.WorldPopulationCovered = &covered
	pct := percent(covered, total)
	s.WorldPopulationCoveredPct = &pct
}

func speakerCoverage(s *Summary, voices []Voice, speakers *reference.SpeakerTable) {
	if speakers == nil || speakers.Len() == 0 {
		return
	}
	covered := map[string]int64{}
	for _, v := range voices {
		for _, tag := range v.LanguageCodes {
			if key, n, ok := speakers.Lookup(primarySubtag(tag)); ok {
				covered[key] = n
			}
		}
	}
	total := speakers.Total()
	var sum int64
	for _, n := range covered {
		sum += n
	}
	languages := len(covered)
	s.LanguageSpeakersTotal = &total
	s.LanguageSpeakersCovered = &sum
	pct := percent(sum, total)
	s.LanguageSpeakersPct = &pct
	s.LanguagesCovered = &languages
}

// primarySubtag returns the lowercased language subtag of a tag with retired
// codes replaced.
func primarySubtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if alias, ok := speakerAliases[tag]; ok {
		return alias
	}
	return tag
}

func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Write stores the payload as UTF-8 JSON at path, creating parent
// directories.
func Write(p *Payload, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return eris.Wrap(err, "export: encode payload")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
