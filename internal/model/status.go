package model

// Status reflects staff review progress for a request.
// Transitions are unrestricted: any status may move to any other status,
// including itself. Tooling downstream depends on that permissiveness, so a
// stricter state machine must not be introduced here.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// KnownStatus reports whether s is one of the four recognized statuses.
func KnownStatus(s Status) bool {
	switch s {
	case StatusNew, StatusProcessing, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Stats holds aggregate counts over the full request set. Records whose
// status falls outside the four known values count toward Total only, so the
// per-status counts may sum to less than Total.
type Stats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Rejected   int `json:"rejected"`
}
