package store

import (
	"database/sql"
	"errors"
	"fmt"

	"dispensecore/hub"
)

// ErrInsufficientStock is the authoritative commit-time rejection: a
// requested quantity exceeds what the pills table holds right now.
var ErrInsufficientStock = errors.New("insufficient stock")

type Queue struct {
	ID        int64
	Number    int64
	PatientID int64
	Patient   string
	Room      string
	Status    string
	Note      *string
	ServedAt  *string
	CreatedAt string
	Items     []QueueItem
}

type QueueItem struct {
	PillID   int64
	Name     string
	Quantity int64
}

// CreateQueue validates and commits one dispense request in a single
// transaction: the patient must exist, every pill must exist, tracked
// stock is re-checked and decremented here regardless of what the client
// ledger believed, the next queue number is assigned, and the items are
// recorded. Returns ErrInsufficientStock (wrapped) when stock has moved
// under the client.
func (db *DB) CreateQueue(patientID int64, room string, items []QueueItem) (*Queue, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("queue needs at least one item")
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var patientName string
	if err := tx.QueryRow(db.Q(`SELECT name FROM patients WHERE id = ?`), patientID).Scan(&patientName); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient %d not found", patientID)
		}
		return nil, err
	}

	resolved := make([]QueueItem, 0, len(items))
	for _, it := range items {
		var name, pillType string
		var amount sql.NullInt64
		err := tx.QueryRow(db.Q(`SELECT name, type, amount FROM pills WHERE id = ?`), it.PillID).
			Scan(&name, &pillType, &amount)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("pill %d not found", it.PillID)
			}
			return nil, err
		}

		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		if pillType == hub.PillLiquid {
			qty = 1
		}

		if amount.Valid {
			if amount.Int64 < qty {
				return nil, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, name, amount.Int64, qty)
			}
			if _, err := tx.Exec(db.Q(`UPDATE pills SET amount = amount - ? WHERE id = ?`), qty, it.PillID); err != nil {
				return nil, err
			}
		}
		resolved = append(resolved, QueueItem{PillID: it.PillID, Name: name, Quantity: qty})
	}

	var number int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(queue_number), 0) + 1 FROM queues`).Scan(&number); err != nil {
		return nil, err
	}

	queueID, err := db.insertID(tx, `INSERT INTO queues (queue_number, patient_id, room, status) VALUES (?, ?, ?, ?)`,
		number, patientID, room, hub.StatusPending)
	if err != nil {
		return nil, err
	}

	for _, it := range resolved {
		if _, err := tx.Exec(db.Q(`INSERT INTO queue_items (queue_id, pill_id, quantity) VALUES (?, ?, ?)`),
			queueID, it.PillID, it.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Queue{
		ID:        queueID,
		Number:    number,
		PatientID: patientID,
		Patient:   patientName,
		Room:      room,
		Status:    hub.StatusPending,
		Items:     resolved,
	}, nil
}

func (db *DB) GetQueue(id int64) (*Queue, error) {
	var q Queue
	var note, servedAt sql.NullString
	err := db.QueryRow(db.Q(`
		SELECT q.id, q.queue_number, q.patient_id, p.name, q.room, q.status, q.note, q.served_at, q.created_at
		FROM queues q JOIN patients p ON p.id = q.patient_id
		WHERE q.id = ?`), id).
		Scan(&q.ID, &q.Number, &q.PatientID, &q.Patient, &q.Room, &q.Status, &note, &servedAt, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	if note.Valid {
		q.Note = &note.String
	}
	if servedAt.Valid {
		q.ServedAt = &servedAt.String
	}
	items, err := db.listQueueItems(id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return &q, nil
}

// ListQueuesByStatus returns queues in creation order, items included.
func (db *DB) ListQueuesByStatus(status string, limit int) ([]*Queue, error) {
	rows, err := db.Query(db.Q(`
		SELECT q.id, q.queue_number, q.patient_id, p.name, q.room, q.status, q.note, q.served_at, q.created_at
		FROM queues q JOIN patients p ON p.id = q.patient_id
		WHERE q.status = ?
		ORDER BY q.id
		LIMIT ?`), status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queues []*Queue
	for rows.Next() {
		var q Queue
		var note, servedAt sql.NullString
		if err := rows.Scan(&q.ID, &q.Number, &q.PatientID, &q.Patient, &q.Room, &q.Status, &note, &servedAt, &q.CreatedAt); err != nil {
			return nil, err
		}
		if note.Valid {
			q.Note = &note.String
		}
		if servedAt.Valid {
			q.ServedAt = &servedAt.String
		}
		queues = append(queues, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, q := range queues {
		items, err := db.listQueueItems(q.ID)
		if err != nil {
			return nil, err
		}
		q.Items = items
	}
	return queues, nil
}

func (db *DB) listQueueItems(queueID int64) ([]QueueItem, error) {
	rows, err := db.Query(db.Q(`
		SELECT qi.pill_id, COALESCE(p.name, ''), qi.quantity
		FROM queue_items qi LEFT JOIN pills p ON p.id = qi.pill_id
		WHERE qi.queue_id = ?
		ORDER BY qi.id`), queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []QueueItem
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(&it.PillID, &it.Name, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) UpdateQueueStatus(id int64, status string) error {
	_, err := db.Exec(db.Q(`UPDATE queues SET status = ? WHERE id = ?`), status, id)
	return err
}

// MarkQueueFinished records a terminal status and the completion time.
func (db *DB) MarkQueueFinished(id int64, status string) error {
	_, err := db.Exec(db.Q(`UPDATE queues SET status = ?, served_at = datetime('now','localtime') WHERE id = ?`), status, id)
	return err
}

// AppendQueueNote adds to the queue's note field, newline-separated when
// a note already exists.
func (db *DB) AppendQueueNote(id int64, note string) error {
	q, err := db.GetQueue(id)
	if err != nil {
		return err
	}
	if q.Note != nil && *q.Note != "" {
		note = *q.Note + "\n" + note
	}
	_, err = db.Exec(db.Q(`UPDATE queues SET note = ? WHERE id = ?`), note, id)
	return err
}

func (db *DB) DeleteQueue(id int64) error {
	if _, err := db.Exec(db.Q(`DELETE FROM queue_items WHERE queue_id = ?`), id); err != nil {
		return err
	}
	_, err := db.Exec(db.Q(`DELETE FROM queues WHERE id = ?`), id)
	return err
}

func (db *DB) CountServed() (int64, error) {
	var n int64
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM queues WHERE status = ?`), hub.StatusServed).Scan(&n)
	return n, err
}
