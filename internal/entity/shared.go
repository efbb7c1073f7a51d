package entity

import (
	"net/url"
	"strings"
)

// SubjectKind discriminates the learnable units stored in the subjects collection.
type SubjectKind string

const (
	SubjectKindUnspecified SubjectKind = ""
	SubjectKindHiragana    SubjectKind = "hiragana"
	SubjectKindKatakana    SubjectKind = "katakana"
	SubjectKindRadical     SubjectKind = "radical"
	SubjectKindKanji       SubjectKind = "kanji"
	SubjectKindVocabulary  SubjectKind = "vocabulary"
)

// Valid reports whether the kind is one of the known discriminators.
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectKindHiragana, SubjectKindKatakana, SubjectKindRadical, SubjectKindKanji, SubjectKindVocabulary:
		return true
	default:
		return false
	}
}

// IsKana reports whether the kind belongs to locally generated kana content.
func (k SubjectKind) IsKana() bool {
	return k == SubjectKindHiragana || k == SubjectKindKatakana
}

// ParseSubjectKind converts a remote object name into a SubjectKind.
// kana_vocabulary collapses into vocabulary.
func ParseSubjectKind(object string) SubjectKind {
	switch strings.ToLower(strings.TrimSpace(object)) {
	case "hiragana":
		return SubjectKindHiragana
	case "katakana":
		return SubjectKindKatakana
	case "radical":
		return SubjectKindRadical
	case "kanji":
		return SubjectKindKanji
	case "vocabulary", "kana_vocabulary":
		return SubjectKindVocabulary
	default:
		return SubjectKindUnspecified
	}
}

// documentPathKinds maps the leading path segment of a subject document URL to its kind.
var documentPathKinds = []struct {
	prefix string
	kind   SubjectKind
}{
	{"/radicals/", SubjectKindRadical},
	{"/kanji/", SubjectKindKanji},
	{"/vocabulary/", SubjectKindVocabulary},
}

// KindFromDocumentURL infers the discriminator from a subject's document URL.
// It returns SubjectKindUnspecified when the path matches none of the known segments.
func KindFromDocumentURL(raw string) SubjectKind {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SubjectKindUnspecified
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	for _, candidate := range documentPathKinds {
		if strings.HasPrefix(path, candidate.prefix) {
			return candidate.kind
		}
	}
	return SubjectKindUnspecified
}

// IsSyntheticID reports whether a subject id belongs to locally generated content.
func IsSyntheticID(id int64) bool {
	return id < 0
}
