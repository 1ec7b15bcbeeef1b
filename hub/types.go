package hub

// Queue status values as reported by the hub. The hub only ever moves a
// queue forward: pending -> in_progress -> served | failed.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusProcessing = "processing"
	StatusServed     = "served"
	StatusFailed     = "failed"
)

// Pill types. Liquid pills dispense in whole doses only.
const (
	PillSolid  = "solid"
	PillLiquid = "liquid"
)

// Queue is one patient's dispense request as carried in a snapshot.
// The same queue may appear in more than one category list; logical
// identity is the id, falling back to the display number.
type Queue struct {
	ID          int64       `json:"queue_id"`
	Number      int64       `json:"queue_number"`
	PatientName string      `json:"patient_name"`
	Room        string      `json:"room"`
	Status      string      `json:"status"`
	Note        *string     `json:"note"`
	ServedAt    *string     `json:"served_at"`
	Items       []QueueItem `json:"items,omitempty"`
}

type QueueItem struct {
	PillID   int64  `json:"pill_id"`
	Name     string `json:"name,omitempty"`
	Quantity int64  `json:"quantity"`
}

// EventEntry is one row of the hub's recent event log. It is display and
// audit material only; it never overrides a queue's own note field.
type EventEntry struct {
	TS      string `json:"ts"`
	QueueID *int64 `json:"queue_id"`
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}

// Snapshot is one full pull of hub state. It replaces the previous
// snapshot wholesale; fields are never merged across polls.
type Snapshot struct {
	Current      *Queue       `json:"current"`
	Pending      []Queue      `json:"pending"`
	Processing   []Queue      `json:"processing"`
	Served       []Queue      `json:"served"`
	Failed       []Queue      `json:"failed,omitempty"`
	Previous     []Queue      `json:"previous,omitempty"`
	Logs         []EventEntry `json:"logs"`
	SuccessCount int64        `json:"success_count"`
}

// Pill stock is authoritative on the hub. A nil Stock means stock
// tracking is not configured for the pill, not that it is out of stock.
type Pill struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Stock *int64 `json:"amount"`
}

type Patient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Lookup struct {
	Patients []Patient `json:"patients"`
	Pills    []Pill    `json:"pills"`
}

type CreateQueueRequest struct {
	PatientID int64       `json:"patient_id"`
	Items     []QueueItem `json:"items"`
}

type CreateQueueResponse struct {
	QueueID      int64  `json:"queue_id"`
	QueueNumber  int64  `json:"queue_number"`
	TargetRoom   string `json:"target_room"`
	UpdatedPills []Pill `json:"updated_pills,omitempty"`
}

type CreatePillRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
}

type AdjustPillRequest struct {
	Delta int64 `json:"delta"`
}

type HealthReport struct {
	Status    string `json:"status"`
	Database  bool   `json:"database"`
	Messaging bool   `json:"messaging"`
}
