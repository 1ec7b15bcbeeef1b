package store

import "database/sql"

type Event struct {
	ID      int64
	QueueID *int64
	Event   string
	Message string
	TS      string
}

// AppendEvent records one audit/event log row. queueID may be nil for
// events not tied to a queue.
func (db *DB) AppendEvent(queueID *int64, event, message string) error {
	var qid any
	if queueID != nil {
		qid = *queueID
	}
	_, err := db.Exec(db.Q(`INSERT INTO events (queue_id, event, message) VALUES (?, ?, ?)`),
		qid, event, message)
	return err
}

// ListRecentEvents returns the newest events first.
func (db *DB) ListRecentEvents(limit int) ([]*Event, error) {
	rows, err := db.Query(db.Q(`SELECT id, queue_id, event, message, ts FROM events ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*Event
	for rows.Next() {
		var e Event
		var queueID sql.NullInt64
		var message sql.NullString
		if err := rows.Scan(&e.ID, &queueID, &e.Event, &message, &e.TS); err != nil {
			return nil, err
		}
		if queueID.Valid {
			e.QueueID = &queueID.Int64
		}
		e.Message = message.String
		events = append(events, &e)
	}
	return events, rows.Err()
}
