package messaging

import "encoding/json"

// DispenseCommand is published to the dispensing device when a queue is
// dispatched. The topic carries the room; the payload repeats it for
// backends without per-room topics.
type DispenseCommand struct {
	QueueID     int64         `json:"queue_id"`
	QueueNumber int64         `json:"queue_number"`
	TargetRoom  string        `json:"target_room"`
	Items       []CommandItem `json:"items"`
}

type CommandItem struct {
	PillID   int64 `json:"pill_id"`
	Quantity int64 `json:"quantity"`
}

// DeviceEvent is what the device publishes back when a dispense run
// finishes. Counted is optional: devices with a counting camera report
// per-pill counted quantities so the hub can flag mismatches.
type DeviceEvent struct {
	QueueID int64         `json:"queue_id"`
	Done    int           `json:"done"`
	Status  string        `json:"status"` // "success" or "failed"
	Counted []CommandItem `json:"counted,omitempty"`
}

func (c *DispenseCommand) Encode() ([]byte, error) { return json.Marshal(c) }

func DecodeDeviceEvent(data []byte) (*DeviceEvent, error) {
	var ev DeviceEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
