package queueview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoteQuantityMismatch marks a queue whose device-counted quantities do
// not match the ordered quantities. The hub writes it into the queue note
// and the reconciler's needs-attention view matches on it; both sides
// share this constant.
const NoteQuantityMismatch = "quantity mismatch"

type messageItem struct {
	PillID   int64  `json:"pill_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type messagePayload struct {
	Items     []messageItem `json:"items"`
	PatientID int64         `json:"patient_id"`
}

// RenderMessage expands a structured event or queue message into display
// text. An embedded item list renders one "name × total" line per pill
// name, summing duplicates; a patient reference renders a compact
// summary; anything that does not decode comes back verbatim. Pure and
// idempotent, safe to call on every poll.
func RenderMessage(msg string) string {
	if msg == "" {
		return ""
	}
	var payload messagePayload
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		return msg
	}

	if payload.Items != nil {
		totals := map[string]int64{}
		var order []string
		for _, it := range payload.Items {
			name := it.Name
			if name == "" {
				name = fmt.Sprintf("ID:%d", it.PillID)
			}
			if _, ok := totals[name]; !ok {
				order = append(order, name)
			}
			totals[name] += it.Quantity
		}
		lines := make([]string, 0, len(order))
		for _, name := range order {
			lines = append(lines, fmt.Sprintf("%s × %d", name, totals[name]))
		}
		return strings.Join(lines, "\n")
	}

	if payload.PatientID != 0 {
		return fmt.Sprintf("patient:%d, items:%d", payload.PatientID, len(payload.Items))
	}

	return msg
}
