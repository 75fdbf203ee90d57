package db

import (
	"time"

	"github.com/japaniel/pera/pkg/dictionary"
)

// Card is one study card: a dictionary record plus its review schedule.
type Card struct {
	ID           int64                `json:"id"`
	RecordID     string               `json:"ent_seq"`
	MeaningIndex int                  `json:"meaningIndex"`
	Kanji        string               `json:"kanji,omitempty"`
	Reading      string               `json:"reading,omitempty"`
	Meanings     []dictionary.Meaning `json:"meanings"`
	Pitch        string               `json:"pitch,omitempty"`
	Level        string               `json:"jlptLevel,omitempty"`
	Stage        int                  `json:"srs_stage"`
	IntervalDays int                  `json:"interval"`
	Ease         float64              `json:"ease_factor"`
	NextReview   time.Time            `json:"next_review"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewCard holds the content of a card to create.
type NewCard struct {
	RecordID     string
	MeaningIndex int
	Kanji        string
	Reading      string
	Meanings     []dictionary.Meaning
	Pitch        string
	Level        string
}

// CardFromRecord builds the content of a card for one meaning of a record.
// The card keeps every meaning; meaningIndex selects the one being studied.
func CardFromRecord(r dictionary.Record, meaningIndex int) NewCard {
	return NewCard{
		RecordID:     r.ID,
		MeaningIndex: max(meaningIndex, 0),
		Kanji:        r.Kanji,
		Reading:      r.Reading,
		Meanings:     r.Meanings,
		Pitch:        r.Pitch,
		Level:        r.Level,
	}
}

// Schedule is the review state written back after a review.
type Schedule struct {
	Stage        int
	IntervalDays int
	Ease         float64
	NextReview   time.Time
}

// DueQuery selects cards for a study session.
type DueQuery struct {
	Now   time.Time
	Limit int
	// Level restricts the result to one proficiency tier when non-empty.
	Level string
	// All ignores the schedule and returns cards regardless of due date.
	All bool
}

// Source is a provenance record for where a word was seen.
type Source struct {
	ID         int64
	SourceType string
	Title      string
	Author     string
	Website    string
	URL        string
	Meta       string
	AddedAt    time.Time
}

// CardSource links a Card with a Source and holds contextual metadata.
type CardSource struct {
	ID              int64
	CardID          int64
	SourceID        int64
	ContextSentence string
	OccurrenceCount int
	FirstSeenAt     time.Time
}
