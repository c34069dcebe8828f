package entity

import "time"

// FormSubmission represents a field-service work order form
type FormSubmission struct {
	ID          string `json:"id"`
	JobPONumber string `json:"job_po_number"`
	Status      string `json:"status"`
	IsDraft     bool   `json:"is_draft"`

	// Review flags, mutually exclusive by convention. The schema does not
	// enforce exclusivity; every transition must clear the other two.
	IsRejected  bool `json:"is_rejected"`
	IsForwarded bool `json:"is_forwarded"`
	IsApproved  bool `json:"is_approved"`

	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	WorkflowTimestamp *time.Time `json:"workflow_timestamp,omitempty"`
	RejectionNote     string     `json:"rejection_note,omitempty"`
	ForwardedToEmail  string     `json:"forwarded_to_email,omitempty"`
	SubmittedByEmail  string     `json:"submitted_by_email,omitempty"`
	HTTPPostSent      bool       `json:"http_post_sent"`

	Data FormData `json:"data"`

	// Version is bumped on every workflow write; a stale version fails the
	// transition instead of silently overwriting a concurrent one.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormData is the inspection payload filled in by the technician. All fields
// are optional; the form renderer treats empty values as not-yet-filled.
type FormData struct {
	CustomerName    string `json:"customer_name,omitempty"`
	SiteAddress     string `json:"site_address,omitempty"`
	EquipmentMake   string `json:"equipment_make,omitempty"`
	EquipmentModel  string `json:"equipment_model,omitempty"`
	EquipmentSerial string `json:"equipment_serial,omitempty"`

	Electrical ElectricalReadings `json:"electrical,omitempty"`

	PartsUsed   []PartLine  `json:"parts_used,omitempty"`
	TimeEntries []TimeEntry `json:"time_entries,omitempty"`

	WorkPerformed string `json:"work_performed,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ElectricalReadings holds measured values from the electrical section.
type ElectricalReadings struct {
	VoltageL1  string `json:"voltage_l1,omitempty"`
	VoltageL2  string `json:"voltage_l2,omitempty"`
	VoltageL3  string `json:"voltage_l3,omitempty"`
	AmpsL1     string `json:"amps_l1,omitempty"`
	AmpsL2     string `json:"amps_l2,omitempty"`
	AmpsL3     string `json:"amps_l3,omitempty"`
	GroundOhms string `json:"ground_ohms,omitempty"`
}

// PartLine is a single part consumed on the job.
type PartLine struct {
	PartNumber  string  `json:"part_number"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
}

// TimeEntry is one technician time line.
type TimeEntry struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
	Kind  string  `json:"kind,omitempty"` // regular, overtime, travel
}
