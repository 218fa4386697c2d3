package dataset

import "strings"

// Canonical instrument tags. Source instrument naming is inconsistent
// (e.g. "CRISP (narrowband)"), so variants are absorbed by substring match
// against this small vocabulary instead of a full lookup table.
const (
	TagCRISP   = "CRISP"
	TagCHROMIS = "CHROMIS"
	TagIRIS    = "IRIS"
)

// NormalizeInstruments canonicalizes raw instrument tokens into deduplicated
// tags, preserving the first-seen order of the canonical form. Tokens with
// no canonical mapping are kept as their uppercased form when non-empty.
func NormalizeInstruments(tokens []string) []string {
	tags := make([]string, 0, len(tokens))
	for _, token := range tokens {
		tag := strings.ToUpper(strings.TrimSpace(token))
		switch {
		case strings.Contains(tag, TagCRISP):
			tags = append(tags, TagCRISP)
		case strings.Contains(tag, TagCHROMIS):
			tags = append(tags, TagCHROMIS)
		case strings.Contains(tag, TagIRIS):
			tags = append(tags, TagIRIS)
		case tag != "":
			tags = append(tags, tag)
		}
	}

	seen := make(map[string]struct{}, len(tags))
	uniq := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		uniq = append(uniq, tag)
	}
	return uniq
}
