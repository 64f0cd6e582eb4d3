package models

type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Date      string `json:"date"` // YYYY-MM-DD
	Completed bool   `json:"completed"`
}

// CalendarMark is how a date shows up in the calendar view.
type CalendarMark struct {
	Marked   bool `json:"marked"`
	Selected bool `json:"selected"`
}
