package reference

import (
	"strings"

	"github.com/spf13/cast"
)

// LoadPopulation reads country-population.json. Both an object of
// country code to population and a list of {country_code, population}
// records are accepted. Codes are uppercased.
func LoadPopulation(path string) (map[string]int64, error) {
	var raw any
	out := map[string]int64{}
	if found, err := readJSON(path, &raw); err != nil || !found {
		return out, err
	}
	switch v := raw.(type) {
	case map[string]any:
		for code, pop := range v {
			addPopulation(out, code, pop)
		}
	case []any:
		for _, it := range v {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			code := firstString(item, "country_code", "code", "iso2", "alpha2")
			addPopulation(out, code, firstValue(item, "population", "pop"))
		}
	}
	return out, nil
}

func addPopulation(out map[string]int64, code string, pop any) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || pop == nil {
		return
	}
	n, err := cast.ToFloat64E(pop)
	if err != nil || n < 0 {
		return
	}
	out[code] = int64(n)
}

// SpeakerTable resolves ISO 639-1 and 639-3 codes to a language and its
// speaker count.
type SpeakerTable struct {
	byCode   map[string]string
	speakers map[string]int64
}

// SpeakerRecord is one language row of the speaker dataset.
type SpeakerRecord struct {
	ISO1     string
	ISO3     string
	Speakers int64
}

// NewSpeakerTable indexes records by both code lengths. A language is keyed
// by its 3-letter code when one is known; rows that only carry the 2-letter
// code are folded into that language. When a code is claimed by more than
// one language the one with more speakers wins.
func NewSpeakerTable(records []SpeakerRecord) *SpeakerTable {
	t := &SpeakerTable{
		byCode:   map[string]string{},
		speakers: map[string]int64{},
	}
	for _, r := range records {
		iso1 := strings.ToLower(strings.TrimSpace(r.ISO1))
		iso3 := strings.ToLower(strings.TrimSpace(r.ISO3))
		if (iso1 == "" && iso3 == "") || r.Speakers <= 0 {
			continue
		}

		key := iso3
		if key == "" {
			key = iso1
			if existing, ok := t.byCode[iso1]; ok {
				key = existing
			}
		} else if iso1 != "" && t.byCode[iso1] == iso1 {
			t.rekey(iso1, iso3)
		}

		if r.Speakers > t.speakers[key] {
			t.speakers[key] = r.Speakers
		}
		for _, code := range []string{iso1, iso3} {
			if code == "" {
				continue
			}
			if cur, ok := t.byCode[code]; !ok || cur == key || t.speakers[key] > t.speakers[cur] {
				t.byCode[code] = key
			}
		}
	}
	return t
}

// rekey moves a language keyed by its 2-letter code onto its 3-letter code.
func (t *SpeakerTable) rekey(from, to string) {
	if t.speakers[from] > t.speakers[to] {
		t.speakers[to] = t.speakers[from]
	}
	delete(t.speakers, from)
	for code, key := range t.byCode {
		if key == from {
			t.byCode[code] = to
		}
	}
}

// Lookup returns the language key and speaker count for a 2- or 3-letter
// code.
func (t *SpeakerTable) Lookup(code string) (key string, speakers int64, ok bool) {
	key, ok = t.byCode[strings.ToLower(code)]
	if !ok {
		return "", 0, false
	}
	return key, t.speakers[key], true
}

// Len returns the number of distinct languages.
func (t *SpeakerTable) Len() int {
	return len(t.speakers)
}

// Total returns the summed speaker count over distinct languages.
func (t *SpeakerTable) Total() int64 {
	var total int64
	for _, n := range t.speakers {
		total += n
	}
	return total
}

// LoadSpeakers reads language-speakers.json: a list of records carrying
// iso639_1/iso639_3 codes and a speaker count, or an object of code to count.
func LoadSpeakers(path string) (*SpeakerTable, error) {
	var raw any
	if found, err := readJSON(path, &raw); err != nil || !found {
		return NewSpeakerTable(nil), err
	}
	var records []SpeakerRecord
	switch v := raw.(type) {
	case map[string]any:
		for code, n := range v {
			rec := SpeakerRecord{Speakers: toInt64(n)}
			if len(code) == 3 {
				rec.ISO3 = code
			} else {
				rec.ISO1 = code
			}
			records = append(records, rec)
		}
	case []any:
		for _, it := range v {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			records = append(records, SpeakerRecord{
				ISO1:     firstString(item, "iso639_1", "iso_639_1", "code2", "code"),
				ISO3:     firstString(item, "iso639_3", "iso_639_3", "code3"),
				Speakers: toInt64(firstValue(item, "speakers", "total_speakers", "population")),
			})
		}
	}
	return NewSpeakerTable(records), nil
}

func toInt64(v any) int64 {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return int64(f)
}

func firstValue(item map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(item map[string]any, keys ...string) string {
	return cast.ToString(firstValue(item, keys...))
}
