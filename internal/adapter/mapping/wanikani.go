package mapping

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/wanikani"
)

// SubjectFromResource builds a complete replacement record from a remote subject.
func SubjectFromResource(res wanikani.Resource[wanikani.SubjectData]) entity.Subject {
	d := res.Data
	subject := entity.Subject{
		ID:                     res.ID,
		Kind:                   entity.ParseSubjectKind(res.Object),
		Object:                 res.Object,
		URL:                    res.URL,
		DocumentURL:            d.DocumentURL,
		Level:                  d.Level,
		Slug:                   d.Slug,
		Characters:             lo.FromPtr(d.Characters),
		MeaningMnemonic:        d.MeaningMnemonic,
		ReadingMnemonic:        d.ReadingMnemonic,
		ComponentSubjectIDs:    d.ComponentSubjectIDs,
		AmalgamationSubjectIDs: d.AmalgamationSubjectIDs,
		LessonPosition:         d.LessonPosition,
		HiddenAt:               d.HiddenAt,
		DataUpdatedAt:          res.DataUpdatedAt,
		Meanings: lo.Map(d.Meanings, func(m wanikani.Meaning, _ int) entity.Meaning {
			return entity.Meaning{Meaning: m.Meaning, Primary: m.Primary, AcceptedAnswer: m.AcceptedAnswer}
		}),
		Readings: lo.Map(d.Readings, func(r wanikani.Reading, _ int) entity.Reading {
			return entity.Reading{Reading: r.Reading, Type: r.Type, Primary: r.Primary, AcceptedAnswer: r.AcceptedAnswer}
		}),
		CharacterImages:     mapAssets(d.CharacterImages),
		PronunciationAudios: mapAssets(d.PronunciationAudios),
	}
	subject.Normalize()
	return subject
}

func mapAssets(assets []wanikani.Asset) []entity.Asset {
	if len(assets) == 0 {
		return nil
	}
	return lo.Map(assets, func(a wanikani.Asset, _ int) entity.Asset {
		out := entity.Asset{URL: a.URL, ContentType: a.ContentType}
		if len(a.Metadata) > 0 {
			out.Metadata = make(map[string]string, len(a.Metadata))
			for k, v := range a.Metadata {
				out.Metadata[k] = fmt.Sprint(v)
			}
		}
		return out
	})
}

func AssignmentFromResource(res wanikani.Resource[wanikani.AssignmentData]) entity.Assignment {
	d := res.Data
	return entity.Assignment{
		ID:            res.ID,
		SubjectID:     d.SubjectID,
		SubjectType:   entity.ParseSubjectKind(d.SubjectType),
		SRSStage:      d.SRSStage,
		UnlockedAt:    d.UnlockedAt,
		StartedAt:     d.StartedAt,
		PassedAt:      d.PassedAt,
		BurnedAt:      d.BurnedAt,
		AvailableAt:   d.AvailableAt,
		Hidden:        d.Hidden,
		DataUpdatedAt: res.DataUpdatedAt,
	}
}

func StudyMaterialFromResource(res wanikani.Resource[wanikani.StudyMaterialData]) entity.StudyMaterial {
	d := res.Data
	synonyms := d.MeaningSynonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	return entity.StudyMaterial{
		ID:              res.ID,
		SubjectID:       d.SubjectID,
		SubjectType:     d.SubjectType,
		MeaningNote:     lo.FromPtr(d.MeaningNote),
		ReadingNote:     lo.FromPtr(d.ReadingNote),
		MeaningSynonyms: synonyms,
		Hidden:          d.Hidden,
		CreatedAt:       d.CreatedAt,
		DataUpdatedAt:   res.DataUpdatedAt,
	}
}

// UserFromResource maps the remote user onto the singleton local record.
func UserFromResource(res wanikani.Resource[wanikani.UserData]) entity.User {
	d := res.Data
	return entity.User{
		ID:                 entity.CurrentUserID,
		RemoteID:           d.ID,
		Username:           d.Username,
		Level:              d.Level,
		MaxLevelGranted:    d.Subscription.MaxLevelGranted,
		SubscriptionActive: d.Subscription.Active,
		SubscriptionType:   d.Subscription.Type,
		StartedAt:          d.StartedAt,
		DataUpdatedAt:      res.DataUpdatedAt,
	}
}

// Resources maps a page of resources with fn.
func Resources[T, E any](page []wanikani.Resource[T], fn func(wanikani.Resource[T]) E) []E {
	return lo.Map(page, func(res wanikani.Resource[T], _ int) E { return fn(res) })
}
