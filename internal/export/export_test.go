package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicecatalog/harmonizer/internal/model"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

type fakeReader struct {
	voices    []model.Voice
	solutions []model.Solution
	matches   []model.SolutionVoiceMatch
	err       error
}

func (f *fakeReader) ListVoices(context.Context) ([]model.Voice, error) { return f.voices, f.err }
func (f *fakeReader) ListSolutions(context.Context) ([]model.Solution, error) {
	return f.solutions, nil
}
func (f *fakeReader) ListRuntimeSupport(context.Context) ([]model.RuntimeSupport, error) {
	return nil, nil
}
func (f *fakeReader) ListProviderSupport(context.Context) ([]model.ProviderSupport, error) {
	return nil, nil
}
func (f *fakeReader) ListMatches(context.Context) ([]model.SolutionVoiceMatch, error) {
	return f.matches, nil
}

func sp(s string) *string { return &s }
func fp(f float64) *float64 { return &f }

func voice(key, engineName, platform, country string, langs ...string) model.Voice {
	v := model.Voice{
		VoiceRecord: model.VoiceRecord{ID: key, Name: key, Engine: engineName, Platform: platform, LanguageCodes: langs},
		Key:         key,
		Taxonomy:    model.Taxonomy{Runtime: "Unknown", Provider: "Unknown", EngineFamily: "unknown", DistributionChannel: "online_api"},
	}
	if country != "" {
		v.CountryCode = sp(country)
	}
	return v
}

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestBuild_SummaryFacetsAndCountries(t *testing.T) {
	us1 := voice("a", "Microsoft", "online", "us", "en-US")
	us1.Gender = "f"
	us1.Latitude, us1.Longitude = fp(40), fp(-100)
	us2 := voice("b", "eSpeak", "linux", "US", "en")
	us2.Gender = "male"
	us2.Latitude, us2.Longitude = fp(30), fp(-80)
	sherpa := voice("c", "Sherpa-ONNX", "online", "GB", "en-GB")
	sherpa.Country = sp("United Kingdom")
	nowhere := voice("d", "SAPI", "windows", "")
	nowhere.LanguageDisplay = sp("Klingon")

	r := &fakeReader{
		voices:    []model.Voice{us1, us2, sherpa, nowhere},
		solutions: []model.Solution{{ID: "nvda"}},
		matches:   []model.SolutionVoiceMatch{{SolutionID: "nvda", VoiceKey: "a"}},
	}
	p, err := Build(context.Background(), r, nil, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, fixedNow, p.GeneratedAt)
	assert.Equal(t, 4, p.Summary.Voices)
	assert.Equal(t, map[string]int{"online": 2, "linux": 1, "windows": 1}, p.Summary.Platforms)
	assert.Equal(t, 4, p.Summary.Engines)
	assert.Equal(t, 3, p.Summary.Countries)
	assert.Equal(t, 1, p.Summary.Online)
	assert.Equal(t, 3, p.Summary.Offline)
	assert.Equal(t, 1, p.Summary.Solutions)
	assert.Equal(t, 1, p.Summary.SolutionMatches)
	assert.Nil(t, p.Summary.WorldPopulationTotal)
	assert.Nil(t, p.Summary.LanguagesCovered)

	assert.Equal(t, map[string]int{"Female": 1, "Male": 1, "Unknown": 2}, p.Facets.Genders)
	assert.Equal(t, map[string]int{"Unknown": 4}, p.Facets.Runtimes)

	require.Len(t, p.Countries, 3)
	us := p.Countries[0]
	assert.Equal(t, "US", us.CountryCode)
	assert.Equal(t, 2, us.Count)
	assert.Equal(t, 1, us.OnlineCount)
	assert.Equal(t, 1, us.OfflineCount)
	require.NotNil(t, us.Latitude)
	assert.InDelta(t, 35.0, *us.Latitude, 1e-9)
	assert.InDelta(t, -90.0, *us.Longitude, 1e-9)

	assert.Equal(t, "GB", p.Countries[1].CountryCode)
	assert.Equal(t, "United Kingdom", p.Countries[1].CountryName)
	assert.Nil(t, p.Countries[1].Latitude)
	assert.Equal(t, UnknownCountry, p.Countries[2].CountryCode)
	assert.Equal(t, "Klingon", p.Countries[2].CountryName)

	sv := p.Voices[2]
	assert.Equal(t, "cross-platform", sv.PlatformDisplay)
	assert.Equal(t, "offline", sv.Mode)
	assert.Equal(t, "online", sv.Platform)
	assert.Equal(t, []string{}, sv.Styles)
	assert.Equal(t, []model.PreviewAudio{}, sv.PreviewAudios)
	assert.Equal(t, "online", p.Voices[0].Mode)
}

func TestBuild_PopulationCoverage(t *testing.T) {
	refs := reference.Empty()
	refs.Population = map[string]int64{"US": 300, "GB": 60}
	r := &fakeReader{voices: []model.Voice{
		voice("a", "x", "online", "US"),
		voice("b", "x", "online", "US"),
		voice("c", "x", "online", ""),
	}}

	p, err := Build(context.Background(), r, refs, fixedNow)
	require.NoError(t, err)
	require.NotNil(t, p.Summary.WorldPopulationCovered)
	assert.Equal(t, int64(300), *p.Summary.WorldPopulationCovered)
	assert.Equal(t, int64(360), *p.Summary.WorldPopulationTotal)
	assert.InDelta(t, 83.33, *p.Summary.WorldPopulationCoveredPct, 1e-9)
	assert.Equal(t, refs.Population, p.PopulationByCountry)
}

func TestBuild_SpeakerCoverage(t *testing.T) {
	refs := reference.Empty()
	refs.Speakers = reference.NewSpeakerTable([]reference.SpeakerRecord{
		{ISO1: "he", ISO3: "heb", Speakers: 9},
		{ISO1: "en", ISO3: "eng", Speakers: 1000},
		{ISO1: "de", ISO3: "deu", Speakers: 100},
		{ISO3: "yue", Speakers: 91},
	})
	r := &fakeReader{voices: []model.Voice{
		voice("a", "x", "online", "", "iw_IL"),
		voice("b", "x", "online", "", "en-US", "eng", "EN-gb"),
		voice("c", "x", "online", "", "yue-Hant-HK"),
		voice("d", "x", "online", "", "tlh"),
	}}

	p, err := Build(context.Background(), r, refs, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), *p.Summary.LanguageSpeakersTotal)
	assert.Equal(t, int64(1100), *p.Summary.LanguageSpeakersCovered)
	assert.Equal(t, 3, *p.Summary.LanguagesCovered)
	assert.InDelta(t, 91.67, *p.Summary.LanguageSpeakersPct, 1e-9)
}

func TestBuild_ReaderError(t *testing.T) {
	_, err := Build(context.Background(), &fakeReader{err: eris.New("boom")}, nil, fixedNow)
	assert.Error(t, err)
}

func TestBuild_EmptyCatalog(t *testing.T) {
	p, err := Build(context.Background(), &fakeReader{}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []Voice{}, p.Voices)
	assert.Equal(t, []Country{}, p.Countries)
	assert.Equal(t, []model.Solution{}, p.Solutions)
}

func TestPrimarySubtag(t *testing.T) {
	assert.Equal(t, "he", primarySubtag("iw-IL"))
	assert.Equal(t, "id", primarySubtag("in"))
	assert.Equal(t, "yi", primarySubtag("JI_US"))
	assert.Equal(t, "jv", primarySubtag("jw"))
	assert.Equal(t, "fr", primarySubtag(" fr-CA "))
}

func TestWrite(t *testing.T) {
	p, err := Build(context.Background(), &fakeReader{voices: []model.Voice{voice("a&b", "x", "online", "US")}}, nil, fixedNow)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "static", "voices-site.json")
	require.NoError(t, Write(p, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"voice_key":"a&b"`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2025-01-02T03:04:05Z", decoded["generated_at"])
	summary := decoded["summary"].(map[string]any)
	assert.NotContains(t, summary, "world_population_total")
	voices := decoded["voices"].([]any)
	first := voices[0].(map[string]any)
	assert.Nil(t, first["latitude"])
	assert.Equal(t, "US", first["country_code"])
}
