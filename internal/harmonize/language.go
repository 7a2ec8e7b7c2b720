package harmonize

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/voicecatalog/harmonizer/internal/model"
)

const unknownLanguage = "Unknown"

// SanitizeTag turns a collector language code into a BCP-47 candidate:
// underscores become hyphens and anything but letters, digits and hyphens
// is removed.
func SanitizeTag(raw string) string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	var b strings.Builder
	for _, r := range raw {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// ResolveLanguage derives language metadata from a primary language tag.
// The tag is tried as given, then as primary-region, then as the bare
// primary subtag. An empty tag has display "Unknown" and nothing else; a
// tag that cannot be resolved returns all nil fields and an error.
func ResolveLanguage(raw string) (model.LanguageInfo, error) {
	tag := SanitizeTag(raw)
	if tag == "" {
		return model.LanguageInfo{LanguageDisplay: strPtr(unknownLanguage)}, nil
	}
	if strings.EqualFold(tag, "unknown") {
		return model.LanguageInfo{}, eris.Errorf("harmonize: unknown language tag %q", raw)
	}

	parsed, err := parseWithFallback(tag)
	if err != nil {
		return model.LanguageInfo{}, err
	}

	base, _ := parsed.Base()
	name := display.English.Languages().Name(base)
	if name == "" {
		return model.LanguageInfo{}, eris.Errorf("harmonize: no display name for %q", tag)
	}
	info := model.LanguageInfo{LanguageName: strPtr(name)}

	displayName := name
	if region, conf := parsed.Region(); conf == language.Exact {
		if rn := display.English.Regions().Name(region); rn != "" {
			displayName = name + " (" + rn + ")"
		}
		info.CountryCode = strPtr(region.String())
	} else if conf != language.No && region.String() != "ZZ" {
		info.CountryCode = strPtr(region.String())
	}
	info.LanguageDisplay = strPtr(displayName)

	if script, conf := parsed.Script(); conf == language.Exact {
		info.Script = strPtr(script.String())
	}
	return info, nil
}

func parseWithFallback(tag string) (language.Tag, error) {
	candidates := []string{tag}
	parts := strings.Split(tag, "-")
	if len(parts) > 2 {
		candidates = append(candidates, parts[0]+"-"+parts[1])
	}
	if len(parts) > 1 {
		candidates = append(candidates, parts[0])
	}

	var lastErr error
	for _, c := range candidates {
		parsed, err := language.Parse(c)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return language.Und, eris.Wrapf(lastErr, "harmonize: parse language tag %q", tag)
}

func strPtr(s string) *string {
	return &s
}
