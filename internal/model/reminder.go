package model

const (
	ReminderStatePending = "pending"
	ReminderStateSent    = "sent"
	ReminderStateFailed  = "failed"
)

type Medicine struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Time   string `json:"time"`
	Days   int    `json:"days"`
}

type Reminder struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Medicine string `json:"medicine"`
	Dosage   string `json:"dosage"`
	FireAt   int64  `json:"fire_at"`
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}
