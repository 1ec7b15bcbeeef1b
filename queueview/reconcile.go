// Package queueview collapses the hub's overlapping queue category lists
// into one canonical, deduplicated set and derives the dashboard views
// from it. Everything here is pure: a snapshot in, a view out.
package queueview

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"dispensecore/hub"
)

// windowSize caps every derived list: previous, last-finished,
// needs-attention and failed.
const windowSize = 5

var failedPattern = regexp.MustCompile(`(?i)fail|error`)

// View is the reconciled, display-ready derivation of one snapshot.
type View struct {
	// Canonical holds every queue exactly once, in category priority
	// order (pending, processing, served, failed). When the same id
	// shows up in several lists the record from the later list wins,
	// so the most advanced status is the one kept.
	Canonical []hub.Queue

	Current        *hub.Queue
	Previous       []hub.Queue
	LastFinished   []hub.Queue
	NeedsAttention []hub.Queue
	Failed         []hub.Queue
}

// Reconcile builds the canonical queue set and derived views for one
// snapshot. Duplicate reports across category lists collapse to a single
// record; a queue seen in both "served" and "pending" is served, never
// pending again.
//
// When several queues report an in-progress status at once, the one with
// the lowest display number is current. The hub's list order carries no
// ordering signal, so the tie-break is explicit policy here rather than
// whatever concatenation order happened to produce.
func Reconcile(snap *hub.Snapshot) *View {
	v := &View{}
	if snap == nil {
		return v
	}

	v.Canonical = dedupe(concat(snap.Pending, snap.Processing, snap.Served, snap.Failed))
	v.Current = selectCurrent(snap)
	v.Previous = previousWindow(snap, v.Current)
	v.LastFinished = lastFinished(snap.Served)
	v.NeedsAttention = needsAttention(v.Canonical, v.Current)
	v.Failed = failedSet(v.Canonical)
	return v
}

// key is a queue's logical identity: id, else display number, else a
// structural hash of the whole record for malformed rows carrying neither.
func key(q hub.Queue) string {
	if q.ID != 0 {
		return fmt.Sprintf("id:%d", q.ID)
	}
	if q.Number != 0 {
		return fmt.Sprintf("num:%d", q.Number)
	}
	data, _ := json.Marshal(q)
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("hash:%x", h.Sum64())
}

func concat(lists ...[]hub.Queue) []hub.Queue {
	var out []hub.Queue
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// dedupe keeps one record per key. A later occurrence replaces the earlier
// record in place, preserving first-seen position.
func dedupe(queues []hub.Queue) []hub.Queue {
	index := make(map[string]int, len(queues))
	out := make([]hub.Queue, 0, len(queues))
	for _, q := range queues {
		k := key(q)
		if i, ok := index[k]; ok {
			out[i] = q
			continue
		}
		index[k] = len(out)
		out = append(out, q)
	}
	return out
}

func isInProgress(status string) bool {
	s := strings.ToLower(status)
	return s == hub.StatusInProgress || s == hub.StatusProcessing
}

// selectCurrent scans pending then processing for an in-progress record.
// Ties break on lowest display number, then lowest id.
func selectCurrent(snap *hub.Snapshot) *hub.Queue {
	var current *hub.Queue
	for _, q := range concat(snap.Pending, snap.Processing) {
		if !isInProgress(q.Status) {
			continue
		}
		q := q
		if current == nil || q.Number < current.Number ||
			(q.Number == current.Number && q.ID < current.ID) {
			current = &q
		}
	}
	return current
}

// previousWindow picks up to windowSize queues behind the current one.
// If current sits inside pending, the window is the records right after
// it; otherwise the head of pending. With pending empty, any explicit
// "previous" field on the snapshot is the fallback.
func previousWindow(snap *hub.Snapshot, current *hub.Queue) []hub.Queue {
	if len(snap.Pending) > 0 {
		if current != nil {
			for i, q := range snap.Pending {
				if q.ID == current.ID {
					return capWindow(snap.Pending[i+1:])
				}
			}
		}
		return capWindow(snap.Pending)
	}
	return capWindow(snap.Previous)
}

// lastFinished returns up to windowSize served queues, newest first.
// The served list arrives in completion order, so the tail is reversed.
func lastFinished(served []hub.Queue) []hub.Queue {
	if len(served) == 0 {
		return nil
	}
	start := len(served) - windowSize
	if start < 0 {
		start = 0
	}
	tail := served[start:]
	out := make([]hub.Queue, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}

// needsAttention collects queues whose note carries the quantity mismatch
// marker. Only the queue record's own note is consulted; event log text
// never backfills a missing note.
func needsAttention(canonical []hub.Queue, current *hub.Queue) []hub.Queue {
	scan := canonical
	if current != nil {
		scan = append(append([]hub.Queue{}, canonical...), *current)
	}
	var out []hub.Queue
	seen := map[string]bool{}
	for _, q := range scan {
		if q.Note == nil || !strings.Contains(*q.Note, NoteQuantityMismatch) {
			continue
		}
		k := key(q)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q)
		if len(out) == windowSize {
			break
		}
	}
	return out
}

// failedSet collects queues whose status matches a fail/error pattern,
// case-insensitively.
func failedSet(canonical []hub.Queue) []hub.Queue {
	var out []hub.Queue
	for _, q := range canonical {
		if !failedPattern.MatchString(q.Status) {
			continue
		}
		out = append(out, q)
		if len(out) == windowSize {
			break
		}
	}
	return out
}

func capWindow(queues []hub.Queue) []hub.Queue {
	if len(queues) == 0 {
		return nil
	}
	if len(queues) > windowSize {
		queues = queues[:windowSize]
	}
	return append([]hub.Queue{}, queues...)
}
