package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// #region errors

// ErrVersionConflict is returned when an optimistic policy write lost the
// race: the row's version changed between read and write. Callers re-read
// and retry.
var ErrVersionConflict = errors.New("policy version conflict")

// #endregion errors

// #region get-policy
// GetPolicy reads the persisted policy for a segment.
// Returns found=false when no row exists; callers fall back to defaults.
func (s *Store) GetPolicy(key SegmentKey) (Policy, bool, error) {
	if err := key.Validate(); err != nil {
		return Policy{}, false, err
	}

	var p Policy
	var updatedStr string
	err := s.db.QueryRow(
		`SELECT persona, content_type, w_semantic, w_lexical, w_quality, w_freshness,
			temp_low, temp_mid, temp_high, success_rate, total_generations, version, updated_at
		 FROM policies WHERE persona = ? AND content_type = ?`,
		key.Persona, key.ContentType,
	).Scan(&p.Persona, &p.ContentType, &p.SemanticWeight, &p.LexicalWeight,
		&p.QualityWeight, &p.FreshnessWeight, &p.TempLow, &p.TempMid, &p.TempHigh,
		&p.SuccessRate, &p.TotalGenerations, &p.Version, &updatedStr)
	if err == sql.ErrNoRows {
		return Policy{}, false, nil
	}
	if err != nil {
		return Policy{}, false, fmt.Errorf("get policy %s: %w", key, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return p, true, nil
}

// #endregion get-policy

// #region insert-policy
// InsertPolicy creates the first policy row for a segment at version 1.
// Weights are normalized before the write. Returns ErrVersionConflict when
// a concurrent creator won the race.
func (s *Store) InsertPolicy(p Policy) error {
	if err := p.Segment().Validate(); err != nil {
		return err
	}
	p.NormalizeWeights()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO policies (persona, content_type, w_semantic, w_lexical, w_quality, w_freshness,
			temp_low, temp_mid, temp_high, success_rate, total_generations, version, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		p.Persona, p.ContentType, p.SemanticWeight, p.LexicalWeight,
		p.QualityWeight, p.FreshnessWeight, p.TempLow, p.TempMid, p.TempHigh,
		clamp01(p.SuccessRate), p.TotalGenerations, p.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		// UNIQUE violation on the (persona, content_type) primary key means a
		// concurrent request created the row first.
		return fmt.Errorf("insert policy %s: %w", p.Segment(), errors.Join(ErrVersionConflict, err))
	}
	return nil
}

// #endregion insert-policy

// #region update-policy
// UpdatePolicy writes a policy iff the stored version still matches
// p.Version (optimistic concurrency). On success the stored version is
// p.Version+1. Weights are normalized and the success rate clamped to [0,1]
// before the write.
func (s *Store) UpdatePolicy(p Policy) error {
	if err := p.Segment().Validate(); err != nil {
		return err
	}
	p.NormalizeWeights()
	p.SuccessRate = clamp01(p.SuccessRate)
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.Exec(
		`UPDATE policies SET
			w_semantic = ?, w_lexical = ?, w_quality = ?, w_freshness = ?,
			temp_low = ?, temp_mid = ?, temp_high = ?,
			success_rate = ?, total_generations = ?,
			version = version + 1, updated_at = ?
		 WHERE persona = ? AND content_type = ? AND version = ?`,
		p.SemanticWeight, p.LexicalWeight, p.QualityWeight, p.FreshnessWeight,
		p.TempLow, p.TempMid, p.TempHigh,
		p.SuccessRate, p.TotalGenerations, p.UpdatedAt.Format(time.RFC3339Nano),
		p.Persona, p.ContentType, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update policy %s: %w", p.Segment(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update policy %s: %w", p.Segment(), err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// #endregion update-policy

// #region list-policies
// ListPolicies returns all persisted policies, most recently updated first.
func (s *Store) ListPolicies() ([]Policy, error) {
	rows, err := s.db.Query(
		`SELECT persona, content_type, w_semantic, w_lexical, w_quality, w_freshness,
			temp_low, temp_mid, temp_high, success_rate, total_generations, version, updated_at
		 FROM policies ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var p Policy
		var updatedStr string
		if err := rows.Scan(&p.Persona, &p.ContentType, &p.SemanticWeight, &p.LexicalWeight,
			&p.QualityWeight, &p.FreshnessWeight, &p.TempLow, &p.TempMid, &p.TempHigh,
			&p.SuccessRate, &p.TotalGenerations, &p.Version, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// #endregion list-policies

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
