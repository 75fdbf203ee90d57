package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/pera/pkg/dictionary"
)

// ErrCardNotFound is returned when no card has the requested id.
var ErrCardNotFound = errors.New("card not found")

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

const cardColumns = `id, record_id, meaning_index, kanji, reading, meanings, pitch, level,
	stage, interval_days, ease_factor, next_review, created_at`

// CreateOrGetCard inserts a new card due at now, or returns the id of the
// existing card for the same record and meaning. created reports whether a
// row was inserted.
func CreateOrGetCard(db DBExecutor, c NewCard, ease float64, now time.Time) (id int64, created bool, err error) {
	recordID := strings.TrimSpace(c.RecordID)
	if recordID == "" {
		return 0, false, fmt.Errorf("record id must be non-empty")
	}
	if c.MeaningIndex < 0 {
		return 0, false, fmt.Errorf("meaning index must not be negative, got %d", c.MeaningIndex)
	}
	meanings := c.Meanings
	if meanings == nil {
		meanings = []dictionary.Meaning{}
	}
	meaningsJSON, err := json.Marshal(meanings)
	if err != nil {
		return 0, false, fmt.Errorf("encode meanings: %w", err)
	}

	err = db.QueryRow(`INSERT INTO cards (record_id, meaning_index, kanji, reading, meanings, pitch, level,
			stage, interval_days, ease_factor, next_review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)
		ON CONFLICT(record_id, meaning_index) DO NOTHING
		RETURNING id`,
		recordID, c.MeaningIndex, nullableString(c.Kanji), nullableString(c.Reading), string(meaningsJSON),
		nullableString(c.Pitch), nullableString(c.Level), ease, now.UnixMilli(), now.UnixMilli(),
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("insert card: %w", err)
	}

	err = db.QueryRow(`SELECT id FROM cards WHERE record_id = ? AND meaning_index = ?`, recordID, c.MeaningIndex).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("select card: %w", err)
	}
	return id, false, nil
}

// GetCard returns the card with the given id.
func GetCard(db DBExecutor, id int64) (Card, error) {
	row := db.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, ErrCardNotFound
	}
	return c, err
}

// ListCards returns every card in creation order.
func ListCards(db DBExecutor) ([]Card, error) {
	rows, err := db.Query(`SELECT ` + cardColumns + ` FROM cards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

// DueCards returns cards for a study session, earliest due first.
func DueCards(db DBExecutor, q DueQuery) ([]Card, error) {
	var (
		where []string
		args  []interface{}
	)
	if !q.All {
		where = append(where, "next_review <= ?")
		args = append(args, q.Now.UnixMilli())
	}
	if q.Level != "" {
		where = append(where, "level = ?")
		args = append(args, q.Level)
	}

	query := `SELECT ` + cardColumns + ` FROM cards`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY next_review, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

// UpdateCardSchedule stores the result of a review.
func UpdateCardSchedule(db DBExecutor, id int64, s Schedule) error {
	res, err := db.Exec(`UPDATE cards SET stage = ?, interval_days = ?, ease_factor = ?, next_review = ? WHERE id = ?`,
		s.Stage, s.IntervalDays, s.Ease, s.NextReview.UnixMilli(), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// DeleteCard removes one card.
func DeleteCard(db DBExecutor, id int64) error {
	res, err := db.Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// DeleteAllCards removes every card and returns how many were deleted.
func DeleteAllCards(db DBExecutor) (int64, error) {
	res, err := db.Exec(`DELETE FROM cards`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountCards returns the number of stored cards.
func CountCards(db DBExecutor) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&n)
	return n, err
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(s rowScanner) (Card, error) {
	var (
		c                            Card
		kanji, reading, pitch, level sql.NullString
		meanings                     string
		next, created                int64
	)
	err := s.Scan(&c.ID, &c.RecordID, &c.MeaningIndex, &kanji, &reading, &meanings, &pitch, &level,
		&c.Stage, &c.IntervalDays, &c.Ease, &next, &created)
	if err != nil {
		return Card{}, err
	}
	if err := json.Unmarshal([]byte(meanings), &c.Meanings); err != nil {
		return Card{}, fmt.Errorf("decode meanings of card %d: %w", c.ID, err)
	}
	c.Kanji = kanji.String
	c.Reading = reading.String
	c.Pitch = pitch.String
	c.Level = level.String
	c.NextReview = time.UnixMilli(next).UTC()
	c.CreatedAt = time.UnixMilli(created).UTC()
	return c, nil
}

func collectCards(rows *sql.Rows) ([]Card, error) {
	defer rows.Close()
	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullableString returns nil for "" else the value.
func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
