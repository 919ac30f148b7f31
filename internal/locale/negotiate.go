package locale

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

type weightedTag struct {
	tag language.Tag
	q   float32
}

// parseAcceptLanguage parses each entry of an Accept-Language header on its
// own, dropping entries that are not valid language tags. Results are ordered
// by descending weight; entries with q=0 are removed.
func parseAcceptLanguage(header string) []language.Tag {
	var parsed []weightedTag
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "*") {
			continue
		}
		tags, q, err := language.ParseAcceptLanguage(part)
		if err != nil || len(tags) == 0 || q[0] <= 0 {
			continue
		}
		parsed = append(parsed, weightedTag{tag: tags[0], q: q[0]})
	}

	slices.SortStableFunc(parsed, func(a, b weightedTag) int {
		switch {
		case a.q > b.q:
			return -1
		case a.q < b.q:
			return 1
		default:
			return 0
		}
	})

	out := make([]language.Tag, len(parsed))
	for i, p := range parsed {
		out[i] = p.tag
	}
	return out
}

// Negotiate picks the best of supported for an Accept-Language header.
// fallback is returned when the header has no valid tags or nothing matches.
func Negotiate(header string, supported []string, fallback string) string {
	if len(supported) == 0 {
		return fallback
	}
	wanted := parseAcceptLanguage(header)
	if len(wanted) == 0 {
		return fallback
	}

	tags := make([]language.Tag, 0, len(supported))
	names := make([]string, 0, len(supported))
	for _, s := range supported {
		t, err := language.Parse(s)
		if err != nil {
			continue
		}
		tags = append(tags, t)
		names = append(names, s)
	}
	if len(tags) == 0 {
		return fallback
	}

	_, idx, conf := language.NewMatcher(tags).Match(wanted...)
	if conf == language.No {
		return fallback
	}
	return names[idx]
}
