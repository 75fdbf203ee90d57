package dictionary

// Record is one (entry, reading) pair of the lexicon, flattened for search
// and for export to the card store.
type Record struct {
	ID       string    `json:"ent_seq"`
	Kanji    string    `json:"kanji,omitempty"`
	Reading  string    `json:"reading,omitempty"`
	Meanings []Meaning `json:"meanings,omitempty"`
	Pitch    string    `json:"pitch,omitempty"`
	Level    string    `json:"jlptLevel,omitempty"`
}

// Meaning is one applicable sense of a record.
type Meaning struct {
	Gloss string `json:"gloss,omitempty"`
	// GlossCN is the secondary-language gloss. Only the first meaning of a
	// record carries it.
	GlossCN  string    `json:"gloss_cn,omitempty"`
	Examples []Example `json:"examples,omitempty"`
}

// Example is a target-language sentence and its Japanese source.
type Example struct {
	Text   string `json:"text,omitempty"`
	TextJA string `json:"text_ja,omitempty"`
}

// Levels lists the proficiency tiers from most basic to least basic.
var Levels = []string{"N5", "N4", "N3", "N2", "N1"}

var levelBonus = map[string]int{
	"N5": 100,
	"N4": 80,
	"N3": 60,
	"N2": 40,
	"N1": 20,
}

// LevelBonus returns the ranking bonus for a proficiency tier, or 0 when the
// tier is absent or unknown.
func LevelBonus(level string) int {
	return levelBonus[level]
}
