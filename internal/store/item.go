package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const itemColumns = `id, persona, content_type, tone, title, hook, beats_json,
	voiceover, caption, cta, compliance, source, is_reference,
	score_overall, score_hook, score_originality, score_style_fit, score_safety,
	ratings_count, embedding, created_at, updated_at`

// #region insert-item
// InsertItem persists a new item. A missing ID is generated; timestamps are
// filled when zero. Returns the stored item.
func (s *Store) InsertItem(it Item) (Item, error) {
	if err := it.Segment().Validate(); err != nil {
		return Item{}, err
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = now
	}
	if it.Compliance == "" {
		it.Compliance = CompliancePass
	}
	if it.Source == "" {
		it.Source = SourceAI
	}

	beatsJSON, err := json.Marshal(it.Beats)
	if err != nil {
		return Item{}, fmt.Errorf("marshal beats: %w", err)
	}

	isRef := 0
	if it.IsReference {
		isRef = 1
	}

	_, err = s.db.Exec(
		`INSERT INTO items (id, persona, content_type, tone, title, hook, beats_json,
			voiceover, caption, cta, compliance, source, is_reference,
			score_overall, score_hook, score_originality, score_style_fit, score_safety,
			ratings_count, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Persona, it.ContentType, it.Tone, it.Title, it.Hook, string(beatsJSON),
		it.Voiceover, it.Caption, it.CTA, it.Compliance, it.Source, isRef,
		it.ScoreOverall, it.ScoreHook, it.ScoreOriginality, it.ScoreStyleFit, it.ScoreSafety,
		it.RatingsCount, encodeVector(it.Embedding),
		it.CreatedAt.Format(time.RFC3339Nano), it.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

// #endregion insert-item

// #region get-item
// GetItem retrieves an item by ID.
func (s *Store) GetItem(id string) (Item, error) {
	row := s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return it, nil
}

// #endregion get-item

// #region list-references
// ListReferences returns reference items for a segment, excluding
// compliance failures. This is the candidate pool for retrieval.
func (s *Store) ListReferences(key SegmentKey) ([]Item, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT `+itemColumns+` FROM items
		 WHERE persona = ? AND content_type = ? AND is_reference = 1 AND compliance != ?
		 ORDER BY created_at ASC, id ASC`,
		key.Persona, key.ContentType, ComplianceFail,
	)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// #endregion list-references

// #region embeddings
// SetEmbedding stores the embedding vector for an item.
func (s *Store) SetEmbedding(itemID string, vec []float64) error {
	res, err := s.db.Exec(
		`UPDATE items SET embedding = ?, updated_at = ? WHERE id = ?`,
		encodeVector(vec), time.Now().UTC().Format(time.RFC3339Nano), itemID,
	)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("set embedding: item %s not found", itemID)
	}
	return nil
}

// ListUnembedded returns IDs of items that have no embedding yet.
// Indexing runs off the request path; unembedded items still participate
// in retrieval with worst-case semantic similarity.
func (s *Store) ListUnembedded(limit int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT id FROM items WHERE embedding IS NULL ORDER BY created_at ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unembedded: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// #endregion embeddings

// #region ratings
// AddRating appends a rating event and recomputes the item's cached
// aggregates in the same transaction.
func (s *Store) AddRating(r Rating) error {
	if r.ItemID == "" {
		return fmt.Errorf("add rating: empty item id")
	}
	if r.Rater == "" {
		r.Rater = "human"
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO ratings (item_id, rater, overall, hook, originality, style_fit, safety, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ItemID, r.Rater, r.Overall, r.Hook, r.Originality, r.StyleFit, r.Safety,
		r.Notes, r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE items SET
			score_overall     = (SELECT AVG(overall) FROM ratings WHERE item_id = ?),
			score_hook        = (SELECT AVG(hook) FROM ratings WHERE item_id = ?),
			score_originality = (SELECT AVG(originality) FROM ratings WHERE item_id = ?),
			score_style_fit   = (SELECT AVG(style_fit) FROM ratings WHERE item_id = ?),
			score_safety      = (SELECT AVG(safety) FROM ratings WHERE item_id = ?),
			ratings_count     = (SELECT COUNT(*) FROM ratings WHERE item_id = ?),
			updated_at        = ?
		 WHERE id = ?`,
		r.ItemID, r.ItemID, r.ItemID, r.ItemID, r.ItemID, r.ItemID,
		time.Now().UTC().Format(time.RFC3339Nano), r.ItemID,
	)
	if err != nil {
		return fmt.Errorf("update aggregates: %w", err)
	}

	return tx.Commit()
}

// #endregion ratings

// #region auto-scores
// InsertAutoScore persists a judge score record for an item.
func (s *Store) InsertAutoScore(a AutoScore) error {
	if a.ItemID == "" {
		return fmt.Errorf("insert auto score: empty item id")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO auto_scores (item_id, overall, hook, originality, style_fit, safety, confidence, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ItemID, a.Overall, a.Hook, a.Originality, a.StyleFit, a.Safety,
		a.Confidence, a.Notes, a.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert auto score: %w", err)
	}
	return nil
}

// GetAutoScore returns the latest auto-score for an item, or nil if none.
func (s *Store) GetAutoScore(itemID string) (*AutoScore, error) {
	var a AutoScore
	var createdStr string
	err := s.db.QueryRow(
		`SELECT id, item_id, overall, hook, originality, style_fit, safety, confidence, notes, created_at
		 FROM auto_scores WHERE item_id = ? ORDER BY id DESC LIMIT 1`, itemID,
	).Scan(&a.ID, &a.ItemID, &a.Overall, &a.Hook, &a.Originality, &a.StyleFit,
		&a.Safety, &a.Confidence, &a.Notes, &createdStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auto score %s: %w", itemID, err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return &a, nil
}

// #endregion auto-scores

// #region scan
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var it Item
	var beatsJSON string
	var isRef int
	var embBlob []byte
	var createdStr, updatedStr string

	err := row.Scan(
		&it.ID, &it.Persona, &it.ContentType, &it.Tone, &it.Title, &it.Hook, &beatsJSON,
		&it.Voiceover, &it.Caption, &it.CTA, &it.Compliance, &it.Source, &isRef,
		&it.ScoreOverall, &it.ScoreHook, &it.ScoreOriginality, &it.ScoreStyleFit, &it.ScoreSafety,
		&it.RatingsCount, &embBlob, &createdStr, &updatedStr,
	)
	if err != nil {
		return Item{}, err
	}
	if err := json.Unmarshal([]byte(beatsJSON), &it.Beats); err != nil {
		return Item{}, fmt.Errorf("unmarshal beats: %w", err)
	}
	it.IsReference = isRef == 1
	it.Embedding = decodeVector(embBlob)
	it.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	it.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return it, nil
}

// #endregion scan
