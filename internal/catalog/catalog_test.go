package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicecatalog/harmonizer/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "voices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func strp(s string) *string { return &s }
func fltp(f float64) *float64 { return &f }
func intp(i int) *int { return &i }

func testVoices() []model.Voice {
	anna := model.Voice{
		VoiceRecord: model.VoiceRecord{
			ID: "v1", Name: "Anna", LanguageCodes: []string{"en-US", "en"},
			Gender: "Female", Engine: "eSpeak", Platform: "linux",
			CollectedAt: "2024-06-01T00:00:00+00:00",
			Styles:      []string{"calm"}, SampleRate: intp(22050),
			SourceType: "runtime", SourceName: "py3-tts-wrapper",
		},
		Key: "espeak::linux::v1",
		LanguageInfo: model.LanguageInfo{
			LanguageName: strp("English"), LanguageDisplay: strp("English (United States)"),
			CountryCode: strp("US"),
		},
		GeoInfo: model.GeoInfo{Latitude: fltp(38.9), Longitude: fltp(-77.0), Country: strp("United States")},
		PreviewAudios: []model.PreviewAudio{
			{URL: "https://x/anna.wav", LanguageCode: "en-US", Source: "existing"},
		},
		Taxonomy: model.Taxonomy{
			Runtime: "eSpeak NG", Provider: "eSpeak", EngineFamily: "formant",
			DistributionChannel: "local_package", CapabilityTags: []string{"screenreader_compatible"},
			Source: "engine_default", Confidence: "high",
		},
		UseCases: []model.UseCaseSupport{
			{UseCaseID: "screenreader", SupportLevel: model.SupportNative, Notes: strings.Repeat("n", 600), Source: "taxonomy_profile"},
			{UseCaseID: "karaoke", SupportLevel: model.SupportNative},
		},
	}
	anna.PreviewAudio = "https://x/anna.wav"

	cloud := model.Voice{
		VoiceRecord: model.VoiceRecord{
			ID: "en-US-JennyNeural", Name: "Jenny", LanguageCodes: []string{"en-US"},
			Gender: "Female", Engine: "Microsoft", Platform: "online",
		},
		Key: "microsoft::online::en-US-JennyNeural",
		Taxonomy: model.Taxonomy{
			Runtime: "Azure Speech", Provider: "Microsoft", EngineFamily: "neural",
			DistributionChannel: "online_api", CapabilityTags: []string{},
			Source: "engine_default", Confidence: "high",
		},
	}
	return []model.Voice{anna, cloud}
}

func testSolutions() []model.Solution {
	return []model.Solution{
		{
			ID: "nvda", Name: "NVDA", Category: model.CategoryScreenreader, Vendor: "NV Access",
			Platforms: []string{"windows"},
			Links:     []model.SolutionLink{{Label: "Home", URL: "https://nvaccess.org"}},
			Source:    "accessibility-solutions.yaml",
			RuntimeSupport: []model.RuntimeSupport{
				{Runtime: "eSpeak NG", RuntimeClass: model.RuntimeClassDirect, SupportLevel: model.SupportNative},
			},
			ProviderSupport: []model.ProviderSupport{
				{Provider: "Microsoft", SupportLevel: model.SupportPossible, Mode: "addon"},
			},
		},
		{
			ID: "grid", Name: "Grid 3", Category: model.CategoryAAC,
			ProviderSupport: []model.ProviderSupport{
				{Provider: "Microsoft", SupportLevel: model.SupportUnsupported},
			},
		},
	}
}

func TestRebuild_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	res, err := st.Rebuild(ctx, testVoices(), testSolutions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Voices)
	assert.Equal(t, 1, res.VoiceUseCases)
	assert.Equal(t, 2, res.Solutions)
	assert.Equal(t, 1, res.RuntimeSupport)
	assert.Equal(t, 2, res.ProviderSupport)
	assert.Equal(t, 2, res.Matches)

	voices, err := st.ListVoices(ctx)
	require.NoError(t, err)
	require.Len(t, voices, 2)

	anna := voices[0]
	assert.Equal(t, "espeak::linux::v1", anna.Key)
	assert.Equal(t, []string{"en-US", "en"}, anna.LanguageCodes)
	assert.Equal(t, []string{"calm"}, anna.Styles)
	require.NotNil(t, anna.SampleRate)
	assert.Equal(t, 22050, *anna.SampleRate)
	assert.Nil(t, anna.NumSpeakers)
	require.NotNil(t, anna.Latitude)
	assert.InDelta(t, 38.9, *anna.Latitude, 1e-9)
	assert.Nil(t, anna.Region)
	assert.Equal(t, "English (United States)", *anna.LanguageDisplay)
	assert.Nil(t, anna.Script)
	assert.Equal(t, []string{"screenreader_compatible"}, anna.CapabilityTags)
	assert.Equal(t, "engine_default", anna.Taxonomy.Source)
	require.Len(t, anna.PreviewAudios, 1)
	assert.Equal(t, "existing", anna.PreviewAudios[0].Source)

	require.Len(t, anna.UseCases, 1)
	assert.Equal(t, "screenreader", anna.UseCases[0].UseCaseID)
	assert.Len(t, anna.UseCases[0].Notes, 500)

	jenny := voices[1]
	assert.Nil(t, jenny.PreviewAudios)
	assert.Equal(t, []string{}, jenny.CapabilityTags)
	assert.Nil(t, jenny.LanguageName)
	assert.Empty(t, jenny.UseCases)
}

func TestRebuild_ReplacesPreviousContents(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Rebuild(ctx, testVoices(), testSolutions())
	require.NoError(t, err)
	_, err = st.Rebuild(ctx, testVoices()[1:], nil)
	require.NoError(t, err)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Voices: 1, Platforms: 1, Engines: 1}, stats)

	sols, err := st.ListSolutions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sols)
	matches, err := st.ListMatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestListSolutionsAndSupport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.Rebuild(ctx, testVoices(), testSolutions())
	require.NoError(t, err)

	sols, err := st.ListSolutions(ctx)
	require.NoError(t, err)
	require.Len(t, sols, 2)
	assert.Equal(t, "grid", sols[0].ID)
	assert.Equal(t, []string{}, sols[0].Platforms)
	assert.Equal(t, "nvda", sols[1].ID)
	assert.Equal(t, []string{"windows"}, sols[1].Platforms)
	assert.Equal(t, "https://nvaccess.org", sols[1].Links[0].URL)

	runtimes, err := st.ListRuntimeSupport(ctx)
	require.NoError(t, err)
	require.Len(t, runtimes, 1)
	assert.Equal(t, model.RuntimeClassDirect, runtimes[0].RuntimeClass)

	providers, err := st.ListProviderSupport(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "grid", providers[0].SolutionID)
	assert.Equal(t, "addon", providers[1].Mode)

	matches, err := st.ListMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "espeak::linux::v1", matches[0].VoiceKey)
	assert.Equal(t, model.ReasonRuntime, matches[0].Reason)
	assert.Equal(t, model.ReasonProvider, matches[1].Reason)
	assert.Equal(t, model.SupportPossible, matches[1].SupportLevel)
}

func TestGetVoice(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.Rebuild(ctx, testVoices(), nil)
	require.NoError(t, err)

	v, err := st.GetVoice(ctx, "espeak::linux::v1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", v.Name)
	assert.Len(t, v.UseCases, 1)

	_, err = st.GetVoice(ctx, "nope::online::x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.Rebuild(ctx, testVoices(), nil)
	require.NoError(t, err)

	got, err := st.Search(ctx, "jenny", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "microsoft::online::en-US-JennyNeural", got[0].Key)

	got, err = st.Search(ctx, "english", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Anna", got[0].Name)

	_, err = st.Search(ctx, "  ", 10)
	assert.Error(t, err)
}

func TestOpenExisting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := OpenExisting(ctx, filepath.Join(dir, "missing.db"))
	assert.Error(t, err)

	path := filepath.Join(dir, "empty.db")
	st, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	_, err = OpenExisting(ctx, path)
	assert.Error(t, err)

	st, err = NewSQLite(path)
	require.NoError(t, err)
	_, err = st.Rebuild(ctx, testVoices(), nil)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenExisting(ctx, path)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Voices)
}

func TestMatchSolutions(t *testing.T) {
	voice := func(key, runtime, provider string) model.Voice {
		return model.Voice{Key: key, Taxonomy: model.Taxonomy{Runtime: runtime, Provider: provider}}
	}
	sol := model.Solution{
		ID: "s", Category: model.CategoryAAC,
		RuntimeSupport: []model.RuntimeSupport{
			{Runtime: "SAPI 5", SupportLevel: model.SupportPossible},
			{Runtime: "Broken", SupportLevel: model.SupportUnsupported},
		},
		ProviderSupport: []model.ProviderSupport{
			{Provider: "Acapela", SupportLevel: model.SupportNative},
			{Provider: "Mystery", SupportLevel: model.SupportUnknown},
		},
	}
	voices := []model.Voice{
		voice("both", "sapi5", "Acapela"),
		voice("runtime", "SAPI-5", "Other"),
		voice("provider", "Other", "acapela"),
		voice("unsupported", "broken", "Other"),
		voice("unknown", "Other", "mystery"),
		voice("none", "Other", "Other"),
	}

	got := MatchSolutions(voices, []model.Solution{sol})
	require.Len(t, got, 3)

	assert.Equal(t, model.SolutionVoiceMatch{
		SolutionID: "s", VoiceKey: "both", SupportLevel: model.SupportNative,
		Reason: model.ReasonBoth, Category: model.CategoryAAC,
	}, got[0])
	assert.Equal(t, model.ReasonRuntime, got[1].Reason)
	assert.Equal(t, model.SupportPossible, got[1].SupportLevel)
	assert.Equal(t, model.ReasonProvider, got[2].Reason)
	assert.Equal(t, model.SupportNative, got[2].SupportLevel)
}

func TestMatchSolutions_UnsupportedRuntimeStillCountsForReason(t *testing.T) {
	sol := model.Solution{
		ID: "s", Category: model.CategoryScreenreader,
		RuntimeSupport:  []model.RuntimeSupport{{Runtime: "x", SupportLevel: model.SupportUnsupported}},
		ProviderSupport: []model.ProviderSupport{{Provider: "y", SupportLevel: model.SupportCompatible}},
	}
	v := model.Voice{Key: "k", Taxonomy: model.Taxonomy{Runtime: "x", Provider: "y"}}

	got := MatchSolutions([]model.Voice{v}, []model.Solution{sol})
	require.Len(t, got, 1)
	assert.Equal(t, model.SupportCompatible, got[0].SupportLevel)
	assert.Equal(t, model.ReasonBoth, got[0].Reason)
}

func TestRebuild_UseCaseIDsAreNormalized(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	voices := testVoices()[1:]
	voices[0].UseCases = []model.UseCaseSupport{
		{UseCaseID: " AAC ", SupportLevel: model.SupportPossible, Source: "taxonomy_profile"},
	}
	res, err := st.Rebuild(ctx, voices, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.VoiceUseCases)

	rows, err := st.ListVoiceUseCases(ctx, voices[0].Key)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "aac", rows[0].UseCaseID)
	assert.Equal(t, model.SupportPossible, rows[0].SupportLevel)
}
