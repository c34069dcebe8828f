package entity

// Status constants for FormSubmission
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// History action constants
const (
	ActionSubmitted   = "submitted"
	ActionResubmitted = "resubmitted"
	ActionRejected    = "rejected"
	ActionForwarded   = "forwarded"
	ActionApproved    = "approved"
	ActionDraftSaved  = "draft_saved"
	ActionEditEnabled = "edit_enabled"
)

// Role constants for User
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RolePM         = "pm"
	RoleTechnician = "technician"
)

// ActorUnknown is recorded when the acting identity cannot be resolved. The
// submit endpoint does not independently authenticate the submitter, so this
// shows up on forms saved without an owner email.
const ActorUnknown = "unknown"
