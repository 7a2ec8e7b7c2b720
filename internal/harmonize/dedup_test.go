package harmonize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicecatalog/harmonizer/internal/model"
)

func rec(id, engine, platform, name, at string) model.VoiceRecord {
	return model.VoiceRecord{ID: id, Engine: engine, Platform: platform, Name: name, CollectedAt: at}
}

func TestVoiceKey(t *testing.T) {
	assert.Equal(t, "espeak::linux::v1", VoiceKey(rec(" v1 ", " eSpeak", "Linux ", "", "")))
}

func TestDeduplicate_NewestWins(t *testing.T) {
	got := Deduplicate([]model.VoiceRecord{
		rec("v1", "eSpeak", "linux", "old", "2024-01-01T00:00:00+00:00"),
		rec("v1", "eSpeak", "linux", "new", "2024-06-01T00:00:00+00:00"),
		rec("v1", "eSpeak", "linux", "older", "2023-01-01T00:00:00Z"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Name)
}

func TestDeduplicate_UnparseableTimestampLoses(t *testing.T) {
	got := Deduplicate([]model.VoiceRecord{
		rec("v1", "e", "linux", "garbage", "9999-not-a-date"),
		rec("v1", "e", "linux", "dated", "2001-01-01T00:00:00"),
		rec("v1", "e", "linux", "missing", ""),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "dated", got[0].Name)
}

func TestDeduplicate_TieKeepsFirst(t *testing.T) {
	got := Deduplicate([]model.VoiceRecord{
		rec("v1", "e", "linux", "first", "2024-01-01"),
		rec("v1", "e", "linux", "second", "2024-01-01"),
		rec("v2", "e", "linux", "a", ""),
		rec("v2", "e", "linux", "b", ""),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "first", got[1].Name)
}

func TestDeduplicate_DropsMissingID(t *testing.T) {
	got := Deduplicate([]model.VoiceRecord{rec("", "e", "linux", "x", ""), rec("  ", "e", "linux", "y", "")})
	assert.Empty(t, got)
}

func TestDeduplicate_SortedAndIdempotent(t *testing.T) {
	input := []model.VoiceRecord{
		rec("3", "Microsoft", "online", "Zira", "2024-01-01"),
		rec("1", "eSpeak", "windows", "Bob", "2024-01-01"),
		rec("2", "eSpeak", "linux", "Carl", "2024-01-01"),
		rec("4", "eSpeak", "linux", "Anna", "2024-01-01"),
		rec("4", "espeak", "linux", "Anna again", "2024-02-01"),
		rec("5", "AVSynth", "macos", "Alex", ""),
	}
	once := Deduplicate(input)

	var order []string
	for _, r := range once {
		order = append(order, r.Platform+"/"+r.Engine+"/"+r.Name)
	}
	assert.Equal(t, []string{
		"linux/eSpeak/Carl",
		"linux/espeak/Anna again",
		"macos/AVSynth/Alex",
		"online/Microsoft/Zira",
		"windows/eSpeak/Bob",
	}, order)

	keys := map[string]bool{}
	for _, r := range once {
		k := VoiceKey(r)
		assert.False(t, keys[k], "duplicate key %s", k)
		keys[k] = true
	}

	assert.Equal(t, once, Deduplicate(once))
}

func TestParseCollectedAt(t *testing.T) {
	for _, s := range []string{
		"2024-01-01T00:00:00+00:00",
		"2024-01-01T00:00:00.123456Z",
		"2024-01-01T00:00:00.123456",
		"2024-01-01 10:00:00",
		"2024-01-01",
	} {
		_, ok := ParseCollectedAt(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseCollectedAt("yesterday")
	assert.False(t, ok)
}
