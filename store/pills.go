package store

import "database/sql"

type Pill struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Amount *int64 `json:"amount"`
}

// CreatePill inserts a pill. A negative amount stores NULL, meaning
// stock is not tracked for this pill.
func (db *DB) CreatePill(name, pillType string, amount int64) (*Pill, error) {
	var amt any
	if amount >= 0 {
		amt = amount
	}
	id, err := db.insertID(db.DB, `INSERT INTO pills (name, type, amount) VALUES (?, ?, ?)`, name, pillType, amt)
	if err != nil {
		return nil, err
	}
	p := &Pill{ID: id, Name: name, Type: pillType}
	if amount >= 0 {
		p.Amount = &amount
	}
	return p, nil
}

func (db *DB) GetPill(id int64) (*Pill, error) {
	var p Pill
	var amount sql.NullInt64
	err := db.QueryRow(db.Q(`SELECT id, name, type, amount FROM pills WHERE id = ?`), id).
		Scan(&p.ID, &p.Name, &p.Type, &amount)
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		p.Amount = &amount.Int64
	}
	return &p, nil
}

func (db *DB) ListPills() ([]*Pill, error) {
	rows, err := db.Query(`SELECT id, name, type, amount FROM pills ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pills []*Pill
	for rows.Next() {
		var p Pill
		var amount sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &amount); err != nil {
			return nil, err
		}
		if amount.Valid {
			p.Amount = &amount.Int64
		}
		pills = append(pills, &p)
	}
	return pills, rows.Err()
}

// AdjustPillAmount applies a signed delta to a pill's stock, flooring at
// zero, and returns the updated record. Untracked stock (NULL amount)
// stays untracked; the delta is ignored.
func (db *DB) AdjustPillAmount(id, delta int64) (*Pill, error) {
	p, err := db.GetPill(id)
	if err != nil {
		return nil, err
	}
	if p.Amount == nil {
		return p, nil
	}
	next := *p.Amount + delta
	if next < 0 {
		next = 0
	}
	if _, err := db.Exec(db.Q(`UPDATE pills SET amount = ? WHERE id = ?`), next, id); err != nil {
		return nil, err
	}
	p.Amount = &next
	return p, nil
}

func (db *DB) DeletePill(id int64) error {
	_, err := db.Exec(db.Q(`DELETE FROM pills WHERE id = ?`), id)
	return err
}
