package models

// StudySession is a scheduled study meeting within a group. Sessions are
// created once and never mutated; attendance changes happen elsewhere.
type StudySession struct {
	ID            string   `json:"id"`
	GroupID       string   `json:"group_id"`
	Title         string   `json:"title"`
	ScheduledTime string   `json:"scheduled_time"`
	Location      string   `json:"location"`
	Attendees     []string `json:"attendees"`
	CreatedBy     string   `json:"created_by"`
}
