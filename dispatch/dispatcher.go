package dispatch

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"dispensecore/hub"
	"dispensecore/messaging"
	"dispensecore/queueview"
	"dispensecore/store"
)

// Dispatcher pushes newly created queues to the dispensing device and
// consumes the device's completion events. It owns every queue status
// transition after creation: pending -> in_progress on publish,
// in_progress -> served/failed on ack.
type Dispatcher struct {
	db        *store.DB
	msgClient *messaging.Client
	emitter   Emitter
	cmdPrefix string
	evtPrefix string
}

func NewDispatcher(db *store.DB, msgClient *messaging.Client, emitter Emitter, cmdPrefix, evtPrefix string) *Dispatcher {
	return &Dispatcher{
		db:        db,
		msgClient: msgClient,
		emitter:   emitter,
		cmdPrefix: cmdPrefix,
		evtPrefix: evtPrefix,
	}
}

// Start subscribes to device events across all rooms.
func (d *Dispatcher) Start() error {
	if d.msgClient == nil {
		log.Printf("dispatch: no device channel configured, queues stay pending")
		return nil
	}
	return d.msgClient.Subscribe(d.evtPrefix+"/+", d.HandleDeviceEvent)
}

// DispatchQueue publishes the dispense command for a queue and moves it
// to in_progress. Without a connected device channel the queue stays
// pending; a later redispatch can pick it up.
func (d *Dispatcher) DispatchQueue(q *store.Queue) error {
	if d.msgClient == nil || !d.msgClient.IsConnected() {
		log.Printf("dispatch: device channel down, queue %d stays pending", q.ID)
		return nil
	}

	cmd := messaging.DispenseCommand{
		QueueID:     q.ID,
		QueueNumber: q.Number,
		TargetRoom:  q.Room,
	}
	for _, it := range q.Items {
		cmd.Items = append(cmd.Items, messaging.CommandItem{PillID: it.PillID, Quantity: it.Quantity})
	}
	payload, err := cmd.Encode()
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s/%s", d.cmdPrefix, q.Room)
	if err := d.msgClient.Publish(topic, payload); err != nil {
		log.Printf("dispatch: publish queue %d to %s: %v", q.ID, topic, err)
		return err
	}

	if err := d.db.UpdateQueueStatus(q.ID, hub.StatusInProgress); err != nil {
		return err
	}
	d.db.AppendEvent(&q.ID, "dispatched", string(payload))
	if d.emitter != nil {
		d.emitter.EmitQueueDispatched(q.ID, q.Number, q.Room)
	}
	return nil
}

// HandleDeviceEvent processes one completion ack from the device.
// Unknown queue ids are logged and dropped; the ack itself is always
// recorded in the event log.
func (d *Dispatcher) HandleDeviceEvent(topic string, payload []byte) {
	ev, err := messaging.DecodeDeviceEvent(payload)
	if err != nil {
		log.Printf("dispatch: bad device event on %s: %v", topic, err)
		d.db.AppendEvent(nil, "ack_parse_error", err.Error())
		return
	}

	q, err := d.db.GetQueue(ev.QueueID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("dispatch: ack for unknown queue %d", ev.QueueID)
			d.db.AppendEvent(nil, "ack_unknown", string(payload))
			return
		}
		log.Printf("dispatch: get queue %d: %v", ev.QueueID, err)
		return
	}

	status, ok := mapDeviceStatus(ev.Status)
	if !ok {
		log.Printf("dispatch: queue %d reported unrecognized status %q", ev.QueueID, ev.Status)
		d.db.AppendEvent(&q.ID, "ack_unrecognized", string(payload))
		return
	}

	if err := d.db.MarkQueueFinished(q.ID, status); err != nil {
		log.Printf("dispatch: finish queue %d: %v", q.ID, err)
		return
	}
	d.db.AppendEvent(&q.ID, "ack", string(payload))

	if note := mismatchNote(q, ev); note != "" {
		if err := d.db.AppendQueueNote(q.ID, note); err != nil {
			log.Printf("dispatch: note queue %d: %v", q.ID, err)
		}
		d.db.AppendEvent(&q.ID, "count_mismatch", note)
		if d.emitter != nil {
			d.emitter.EmitCountMismatch(q.ID, note)
		}
	}

	if d.emitter != nil {
		switch status {
		case hub.StatusServed:
			d.emitter.EmitQueueServed(q.ID)
		case hub.StatusFailed:
			d.emitter.EmitQueueFailed(q.ID, ev.Status)
		}
	}
}

// mapDeviceStatus folds the device's free-form status onto the queue
// state machine.
func mapDeviceStatus(s string) (string, bool) {
	switch l := strings.ToLower(s); {
	case l == "success" || l == "done" || l == hub.StatusServed:
		return hub.StatusServed, true
	case strings.Contains(l, "fail") || strings.Contains(l, "error"):
		return hub.StatusFailed, true
	default:
		return "", false
	}
}

// mismatchNote compares device-counted quantities against the ordered
// quantities and builds the needs-attention note when they disagree.
func mismatchNote(q *store.Queue, ev *messaging.DeviceEvent) string {
	if len(ev.Counted) == 0 {
		return ""
	}
	expected := make(map[int64]int64, len(q.Items))
	for _, it := range q.Items {
		expected[it.PillID] = it.Quantity
	}
	var details []string
	for _, c := range ev.Counted {
		if want, ok := expected[c.PillID]; ok && want != c.Quantity {
			details = append(details, fmt.Sprintf("pill %d counted %d expected %d", c.PillID, c.Quantity, want))
		}
	}
	if len(details) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", queueview.NoteQuantityMismatch, strings.Join(details, "; "))
}
