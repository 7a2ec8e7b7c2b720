package model

import "strings"

// SupportLevel is the ordered support enum shared by use cases and
// accessibility solutions.
type SupportLevel string

// Support levels, lowest to highest rank.
const (
	SupportUnsupported SupportLevel = "unsupported"
	SupportUnknown     SupportLevel = "unknown"
	SupportPossible    SupportLevel = "possible"
	SupportCompatible  SupportLevel = "compatible"
	SupportNative      SupportLevel = "native"
)

var supportRank = map[SupportLevel]int{
	SupportNative:      5,
	SupportCompatible:  4,
	SupportPossible:    3,
	SupportUnknown:     2,
	SupportUnsupported: 1,
}

// ParseSupportLevel normalizes free text to a SupportLevel. Anything outside
// the enum is SupportUnknown.
func ParseSupportLevel(s string) SupportLevel {
	level := SupportLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := supportRank[level]; ok {
		return level
	}
	return SupportUnknown
}

// Rank returns the ordering weight of the level; higher is better.
func (l SupportLevel) Rank() int {
	return supportRank[l]
}

// Matched reports whether the level counts as actual support, i.e. it is
// neither unknown nor unsupported.
func (l SupportLevel) Matched() bool {
	return l.Rank() > SupportUnknown.Rank()
}

// BestSupportLevel returns the highest ranked of the given levels. Empty
// strings are ignored; with nothing left the result is SupportUnknown.
func BestSupportLevel(levels ...SupportLevel) SupportLevel {
	best := SupportLevel("")
	for _, l := range levels {
		if l == "" {
			continue
		}
		l = ParseSupportLevel(string(l))
		if best == "" || l.Rank() > best.Rank() {
			best = l
		}
	}
	if best == "" {
		return SupportUnknown
	}
	return best
}

// Runtime classes for solution runtime support rows.
const (
	RuntimeClassDirect = "direct"
	RuntimeClassBroker = "broker"
)

// Solution categories.
const (
	CategoryScreenreader = "screenreader"
	CategoryAAC          = "aac"
)

// Match reasons for solution/voice matches.
const (
	ReasonRuntime  = "runtime_match"
	ReasonProvider = "provider_match"
	ReasonBoth     = "both"
)
