// Package engine normalizes TTS engine names and derives the platform,
// mode and display labels used across the catalog.
package engine

import (
	"strings"
	"unicode"
)

// Canonical platform and mode labels.
const (
	PlatformOnline  = "online"
	PlatformUnknown = "unknown"
	ModeOnline      = "online"
	ModeOffline     = "offline"
	CrossPlatform   = "cross-platform"
)

// Normalized engine names referenced by rules elsewhere.
const (
	SherpaONNX = "sherpaonnx"
	ESpeak     = "espeak"
	Microsoft  = "microsoft"
)

// localHints are engine fragments for voices installed on the device. Such
// voices keep the platform they were collected on.
var localHints = []string{
	"sapi",
	"uwp",
	"avsynth",
	"espeak",
	"rhvoice",
	"nuance",
	"acapela",
	"anreader",
	"cereproc",
}

var onlineEngines = map[string]bool{
	"google":      true,
	"googletrans": true,
	Microsoft:     true,
	"polly":       true,
	"elevenlabs":  true,
	"watson":      true,
	"witai":       true,
	"openai":      true,
	"playht":      true,
	"upliftai":    true,
	SherpaONNX:    true,
}

// Token lowercases s and strips everything that is not a letter or digit.
func Token(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize folds vendor spellings ("Microsoft Azure", "AWS Polly",
// "Sherpa-ONNX") onto one token per engine family. Unrecognized engines
// return their plain token.
func Normalize(name string) string {
	v := Token(name)
	switch {
	case strings.Contains(v, "microsoft"), strings.Contains(v, "azure"):
		return Microsoft
	case strings.Contains(v, "polly"):
		return "polly"
	case strings.Contains(v, "eleven"):
		return "elevenlabs"
	case strings.Contains(v, "sherpa"):
		return SherpaONNX
	case strings.Contains(v, "espeak"):
		return ESpeak
	case strings.Contains(v, "watson"):
		return "watson"
	case strings.Contains(v, "witai"), strings.HasPrefix(v, "wit"):
		return "witai"
	case strings.Contains(v, "uplift"):
		return "upliftai"
	case strings.Contains(v, "openai"):
		return "openai"
	case strings.Contains(v, "googletrans"):
		return "googletrans"
	case strings.Contains(v, "google"):
		return "google"
	case strings.Contains(v, "playht"):
		return "playht"
	}
	return v
}

// IsLocal reports whether the engine is an on-device engine that keeps its
// collected platform.
func IsLocal(name string) bool {
	v := Token(name)
	for _, hint := range localHints {
		if strings.Contains(v, hint) {
			return true
		}
	}
	return false
}

// CanonicalPlatform returns the stored platform label for a record. Local
// engines keep their declared platform; cloud vendors and Sherpa-ONNX are
// stored as "online".
func CanonicalPlatform(platform, engineName string) string {
	declared := strings.ToLower(strings.TrimSpace(platform))
	if declared == "" {
		declared = PlatformUnknown
	}
	if IsLocal(engineName) {
		return declared
	}
	if onlineEngines[Normalize(engineName)] {
		return PlatformOnline
	}
	return declared
}

// IsCrossPlatformLocal reports whether the engine runs offline on every
// platform regardless of where it was collected.
func IsCrossPlatformLocal(name string) bool {
	v := Token(name)
	return v == SherpaONNX || v == ESpeak
}

// Mode derives online/offline from a stored platform. Sherpa-ONNX is stored
// with platform "online" but always reports offline.
func Mode(platform, engineName string) string {
	if IsCrossPlatformLocal(engineName) {
		return ModeOffline
	}
	if platform == PlatformOnline {
		return ModeOnline
	}
	return ModeOffline
}

// PlatformDisplay is the platform label shown to users.
func PlatformDisplay(platform, engineName string) string {
	if IsCrossPlatformLocal(engineName) {
		return CrossPlatform
	}
	return platform
}
