// Package srs implements the SM-2 variant used to schedule card reviews.
package srs

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Rating is the learner's answer quality.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

const (
	// DefaultEase is the ease factor of a new card.
	DefaultEase = 2.5
	// MinEase is the lower bound of the ease factor.
	MinEase = 1.3

	hardModifier = 1.2
	easyBonus    = 1.3
	easeStep     = 0.15
	lapsePenalty = 0.2
)

// ErrInvalidRating is returned for ratings outside 1..4.
var ErrInvalidRating = errors.New("srs: rating must be between 1 and 4")

// State is the scheduling state of a card before a review.
type State struct {
	Stage        int
	IntervalDays int
	Ease         float64
}

// Result is the scheduling state after a review.
type Result struct {
	Stage        int       `json:"srs_stage"`
	IntervalDays int       `json:"interval"`
	Ease         float64   `json:"ease_factor"`
	NextReview   time.Time `json:"next_review"`
}

// ParseRating validates an integer rating.
func ParseRating(v int) (Rating, error) {
	r := Rating(v)
	if r < Again || r > Easy {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRating, v)
	}
	return r, nil
}

// Next applies a review with the given rating at time now.
//
// Again resets the card to stage 0 with a one day interval. Any other rating
// advances the stage: the interval is 1 day from stage 0, 6 days from stage 1
// and ceil(previous interval * modifier) after that, where the modifier is
// 1.2 for Hard, the ease for Good and ease*1.3 for Easy. Hard lowers the ease
// by 0.15 and Easy raises it by 0.15. The ease never drops below 1.3.
func Next(s State, rating Rating, now time.Time) (Result, error) {
	if rating < Again || rating > Easy {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidRating, int(rating))
	}
	ease := s.Ease
	if ease <= 0 {
		ease = DefaultEase
	}

	var res Result
	if rating == Again {
		res = Result{
			Stage:        0,
			IntervalDays: 1,
			Ease:         math.Max(MinEase, ease-lapsePenalty),
		}
	} else {
		var interval int
		switch s.Stage {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Ceil(float64(s.IntervalDays) * modifier(rating, ease)))
		}

		switch rating {
		case Hard:
			ease = math.Max(MinEase, ease-easeStep)
		case Easy:
			ease += easeStep
		}
		res = Result{Stage: s.Stage + 1, IntervalDays: interval, Ease: ease}
	}

	res.NextReview = now.Add(time.Duration(res.IntervalDays) * 24 * time.Hour)
	return res, nil
}

func modifier(r Rating, ease float64) float64 {
	switch r {
	case Hard:
		return hardModifier
	case Easy:
		return ease * easyBonus
	default:
		return ease
	}
}
