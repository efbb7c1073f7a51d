package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/eslsoft/kanaplay/internal/entity"
)

// gojuon lists the basic hiragana syllabary with its romanisation.
var gojuon = []struct {
	char   rune
	romaji string
}{
	{'あ', "a"}, {'い', "i"}, {'う', "u"}, {'え', "e"}, {'お', "o"},
	{'か', "ka"}, {'き', "ki"}, {'く', "ku"}, {'け', "ke"}, {'こ', "ko"},
	{'さ', "sa"}, {'し', "shi"}, {'す', "su"}, {'せ', "se"}, {'そ', "so"},
	{'た', "ta"}, {'ち', "chi"}, {'つ', "tsu"}, {'て', "te"}, {'と', "to"},
	{'な', "na"}, {'に', "ni"}, {'ぬ', "nu"}, {'ね', "ne"}, {'の', "no"},
	{'は', "ha"}, {'ひ', "hi"}, {'ふ', "fu"}, {'へ', "he"}, {'ほ', "ho"},
	{'ま', "ma"}, {'み', "mi"}, {'む', "mu"}, {'め', "me"}, {'も', "mo"},
	{'や', "ya"}, {'ゆ', "yu"}, {'よ', "yo"},
	{'ら', "ra"}, {'り', "ri"}, {'る', "ru"}, {'れ', "re"}, {'ろ', "ro"},
	{'わ', "wa"}, {'を', "wo"},
	{'ん', "n"},
}

// katakanaOffset is the code point distance between a hiragana and its katakana.
const katakanaOffset = 0x60

// katakanaIDBase separates synthetic katakana ids from hiragana ids.
const katakanaIDBase = 1000

// KanaSubjects generates the synthetic hiragana and katakana subjects.
// Hiragana take ids -1..-46 and katakana -1001..-1046.
func KanaSubjects() []entity.Subject {
	subjects := make([]entity.Subject, 0, 2*len(gojuon))
	for i, k := range gojuon {
		subjects = append(subjects, kanaSubject(-int64(i+1), entity.SubjectKindHiragana, k.char, k.romaji, i+1))
	}
	for i, k := range gojuon {
		subjects = append(subjects, kanaSubject(-int64(katakanaIDBase+i+1), entity.SubjectKindKatakana, k.char+katakanaOffset, k.romaji, i+1))
	}
	return subjects
}

func kanaSubject(id int64, kind entity.SubjectKind, char rune, romaji string, position int) entity.Subject {
	return entity.Subject{
		ID:         id,
		Kind:       kind,
		Object:     string(kind),
		Level:      0,
		Slug:       fmt.Sprintf("%s-%s", kind, romaji),
		Characters: string(char),
		Meanings: []entity.Meaning{
			{Meaning: strings.ToUpper(romaji[:1]) + romaji[1:], Primary: true, AcceptedAnswer: true},
		},
		Readings: []entity.Reading{
			{Reading: romaji, Primary: true, AcceptedAnswer: true},
		},
		LessonPosition: position,
	}
}

// PopulateKana replaces every synthetic subject with a freshly generated kana set.
func (u *syncUsecase) PopulateKana(ctx context.Context) (int, error) {
	subjects := KanaSubjects()
	err := u.repos.Batcher.Batch(ctx, func(ctx context.Context) error {
		removed, err := u.repos.Subjects.DeleteSynthetic(ctx)
		if err != nil {
			return err
		}
		u.logger.WithField("removed", removed).Debug("synthetic subjects removed")
		return u.repos.Subjects.InsertMany(ctx, subjects)
	})
	if err != nil {
		return 0, err
	}
	u.logger.WithField("inserted", len(subjects)).Info("kana populated")
	return len(subjects), nil
}
