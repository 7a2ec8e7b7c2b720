package model

import "gopkg.in/yaml.v3"

// Solution is an assistive-technology product (screenreader or AAC app)
// that can drive TTS voices.
type Solution struct {
	ID              string            `json:"id" yaml:"id"`
	Name            string            `json:"name" yaml:"name"`
	Category        string            `json:"category" yaml:"category"`
	Vendor          string            `json:"vendor,omitempty" yaml:"vendor"`
	Platforms       []string          `json:"platforms" yaml:"platforms"`
	Links           []SolutionLink    `json:"links" yaml:"links"`
	Source          string            `json:"source,omitempty" yaml:"-"`
	RuntimeSupport  []RuntimeSupport  `json:"-" yaml:"runtime_support"`
	ProviderSupport []ProviderSupport `json:"-" yaml:"provider_sdk_support"`
}

// SolutionLink is a labelled reference URL for a solution.
type SolutionLink struct {
	Label string `json:"label,omitempty" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// UnmarshalYAML accepts either a bare URL string or a {label, url} mapping.
func (l *SolutionLink) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		l.URL = value.Value
		return nil
	}
	type plain SolutionLink
	return value.Decode((*plain)(l))
}

// RuntimeSupport states how a solution supports a speech runtime.
type RuntimeSupport struct {
	SolutionID   string       `json:"solution_id" yaml:"-"`
	Runtime      string       `json:"runtime" yaml:"runtime"`
	RuntimeClass string       `json:"runtime_class" yaml:"runtime_class"`
	SupportLevel SupportLevel `json:"support_level" yaml:"support_level"`
	Mode         string       `json:"mode,omitempty" yaml:"mode"`
	Notes        string       `json:"notes,omitempty" yaml:"notes"`
}

// ProviderSupport states how a solution supports a voice provider SDK.
type ProviderSupport struct {
	SolutionID   string       `json:"solution_id" yaml:"-"`
	Provider     string       `json:"provider" yaml:"provider"`
	SupportLevel SupportLevel `json:"support_level" yaml:"support_level"`
	Mode         string       `json:"mode,omitempty" yaml:"mode"`
	Notes        string       `json:"notes,omitempty" yaml:"notes"`
}

// SolutionVoiceMatch links a solution to a voice it can drive.
type SolutionVoiceMatch struct {
	SolutionID   string       `json:"solution_id"`
	VoiceKey     string       `json:"voice_key"`
	SupportLevel SupportLevel `json:"support_level"`
	Reason       string       `json:"reason"`
	Category     string       `json:"category"`
}
