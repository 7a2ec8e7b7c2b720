package model

// VoiceRecord is one TTS voice as reported by one engine on one platform,
// before enrichment. Optional fields are empty when the source omits them.
type VoiceRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	LanguageCodes []string `json:"language_codes"`
	Gender        string   `json:"gender,omitempty"`
	Engine        string   `json:"engine"`
	Platform      string   `json:"platform"`
	CollectedAt   string   `json:"collected_at"`

	PreviewAudio string   `json:"preview_audio,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	Styles       []string `json:"styles,omitempty"`
	Software     string   `json:"software,omitempty"`
	Age          string   `json:"age,omitempty"`
	ModelType    string   `json:"model_type,omitempty"`
	Developer    string   `json:"developer,omitempty"`
	NumSpeakers  *int     `json:"num_speakers,omitempty"`
	SampleRate   *int     `json:"sample_rate,omitempty"`
	SourceType   string   `json:"source_type,omitempty"`
	SourceName   string   `json:"source_name,omitempty"`
}

// PrimaryLanguage returns the first language code, or "" when none is set.
func (r VoiceRecord) PrimaryLanguage() string {
	if len(r.LanguageCodes) == 0 {
		return ""
	}
	return r.LanguageCodes[0]
}

// PreviewAudio is one preview clip for a voice.
type PreviewAudio struct {
	URL          string `json:"url"`
	LanguageCode string `json:"language_code"`
	Source       string `json:"source"`
}

// Taxonomy holds the runtime/provider classification of a voice.
type Taxonomy struct {
	Runtime             string   `json:"runtime"`
	Provider            string   `json:"provider"`
	EngineFamily        string   `json:"engine_family"`
	DistributionChannel string   `json:"distribution_channel"`
	CapabilityTags      []string `json:"capability_tags"`
	Source              string   `json:"taxonomy_source"`
	Confidence          string   `json:"taxonomy_confidence"`
}

// LanguageInfo is the language metadata derived from a primary language tag.
type LanguageInfo struct {
	LanguageName    *string `json:"language_name"`
	LanguageDisplay *string `json:"language_display"`
	CountryCode     *string `json:"country_code"`
	Script          *string `json:"script"`
}

// GeoInfo is the reference geo metadata for a language tag.
type GeoInfo struct {
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Country       *string  `json:"geo_country"`
	Region        *string  `json:"geo_region"`
	WrittenScript *string  `json:"written_script"`
}

// Voice is a deduplicated, enriched and classified catalog voice.
type Voice struct {
	VoiceRecord
	Key string `json:"voice_key"`

	LanguageInfo
	GeoInfo

	PreviewAudios []PreviewAudio `json:"preview_audios"`

	Taxonomy

	UseCases []UseCaseSupport `json:"use_cases"`
}

// UseCaseSupport states how well a voice serves one accessibility use case.
type UseCaseSupport struct {
	VoiceKey     string       `json:"voice_key,omitempty"`
	UseCaseID    string       `json:"use_case_id"`
	SupportLevel SupportLevel `json:"support_level"`
	Notes        string       `json:"notes"`
	Source       string       `json:"source"`
}
