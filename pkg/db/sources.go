package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, sourceType, title, author, website, url, meta string) (int64, error) {
	trimmedSourceType := strings.TrimSpace(sourceType)
	if trimmedSourceType == "" {
		return 0, fmt.Errorf("sourceType must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := db.QueryRow(
			`SELECT id FROM sources WHERE IFNULL(url, '') = ? AND IFNULL(title, '') = ? AND IFNULL(author, '') = ?`,
			url, title, author,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}

		res, err := db.Exec(
			`INSERT INTO sources (source_type, title, author, website, url, meta) VALUES (?, ?, ?, ?, ?, ?)`,
			trimmedSourceType, title, author, website, url, meta,
		)
		if err != nil {
			// Another writer inserted the same source; select again.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}
		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

func getOrCreateSentence(db DBExecutor, text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, nil
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err == nil {
		return id, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO sentences (text) VALUES (?)`, trimmed); err != nil {
		return 0, err
	}
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// LinkCardToSource records that a card's word was seen in a source, adding
// incrementAmount to the occurrence count. The latest context sentence wins.
func LinkCardToSource(db DBExecutor, cardID, sourceID int64, context string, incrementAmount int) error {
	if cardID <= 0 {
		return fmt.Errorf("cardID must be positive")
	}
	if sourceID <= 0 {
		return fmt.Errorf("sourceID must be positive")
	}
	if incrementAmount < 1 {
		return fmt.Errorf("incrementAmount must be positive, got %d", incrementAmount)
	}

	ctxID, err := getOrCreateSentence(db, context)
	if err != nil {
		return fmt.Errorf("get/create context sentence: %w", err)
	}

	_, err = db.Exec(`INSERT INTO card_sources (card_id, source_id, context_sentence_id, occurrence_count, first_seen_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(card_id, source_id) DO UPDATE SET
	  occurrence_count = card_sources.occurrence_count + excluded.occurrence_count,
	  context_sentence_id = COALESCE(excluded.context_sentence_id, card_sources.context_sentence_id)`,
		cardID, sourceID, nullableInt64(ctxID), incrementAmount, time.Now().UTC())
	return err
}

// nullableInt64 returns nil for 0 (meaning no sentence) else the value.
func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

// GetCardsBySource returns the cards linked to a source with their
// occurrence counts, most frequent first.
func GetCardsBySource(db DBExecutor, sourceID int64) ([]Card, []int, error) {
	rows, err := db.Query(`SELECT c.id, c.record_id, c.meaning_index, c.kanji, c.reading, c.meanings, c.pitch, c.level,
			c.stage, c.interval_days, c.ease_factor, c.next_review, c.created_at, cs.occurrence_count
		FROM cards c JOIN card_sources cs ON cs.card_id = c.id
		WHERE cs.source_id = ?
		ORDER BY cs.occurrence_count DESC, c.id`, sourceID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		cards  []Card
		counts []int
	)
	for rows.Next() {
		var n int
		c, err := scanCard(countScanner{rows: rows, count: &n})
		if err != nil {
			return nil, nil, err
		}
		cards = append(cards, c)
		counts = append(counts, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cards, counts, nil
}

// countScanner appends the occurrence count column to a card scan.
type countScanner struct {
	rows  *sql.Rows
	count *int
}

func (s countScanner) Scan(dest ...interface{}) error {
	return s.rows.Scan(append(dest, s.count)...)
}

// GetSourceProgress returns the last processed sentence index for a source.
// A source that has not been processed yet reports -1.
func GetSourceProgress(db DBExecutor, sourceID int64) (int, error) {
	var index int
	err := db.QueryRow("SELECT last_processed_sentence FROM sources WHERE id = ?", sourceID).Scan(&index)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateSourceProgress updates the last processed sentence index.
func UpdateSourceProgress(db DBExecutor, sourceID int64, index int) error {
	_, err := db.Exec("UPDATE sources SET last_processed_sentence = ? WHERE id = ?", index, sourceID)
	return err
}
