package config

import "time"

// IssueCategory describes one teleconsult issue type. The table is static
// configuration: it drives the consult menu, priority ranking, and the SLA
// math for estimated wait times.
type IssueCategory struct {
	Key            string
	NameTH         string
	Icon           string
	Priority       int // 1 = high, 2 = medium, 3 = low
	MaxWaitMinutes int
}

// IssueCategories maps category keys to their definitions.
var IssueCategories = map[string]IssueCategory{
	"emergency":   {Key: "emergency", NameTH: "ฉุกเฉิน", Icon: "🚨", Priority: 1, MaxWaitMinutes: 5},
	"medication":  {Key: "medication", NameTH: "ถามเรื่องยา", Icon: "💊", Priority: 2, MaxWaitMinutes: 30},
	"wound":       {Key: "wound", NameTH: "ปัญหาแผล", Icon: "🩹", Priority: 2, MaxWaitMinutes: 20},
	"appointment": {Key: "appointment", NameTH: "นัดหมาย", Icon: "📅", Priority: 3, MaxWaitMinutes: 60},
	"other":       {Key: "other", NameTH: "อื่นๆ", Icon: "💬", Priority: 3, MaxWaitMinutes: 45},
}

// CategoryOrder fixes the numbering of the consult menu (maps iterate in
// random order).
var CategoryOrder = []string{"emergency", "medication", "wound", "appointment", "other"}

// CategoryByKey returns the category for key, falling back to "other" for
// anything unrecognized.
func CategoryByKey(key string) IssueCategory {
	if cat, ok := IssueCategories[key]; ok {
		return cat
	}
	return IssueCategories["other"]
}

// MaxQueueSize is the ceiling on waiting teleconsult entries. Admission
// control rejects non-emergency requests once the queue reaches it.
const MaxQueueSize = 10

// OfficeHours is the weekday + time-of-day window during which non-emergency
// consult requests are queued immediately rather than deferred.
type OfficeHours struct {
	Weekdays map[time.Weekday]bool
	Start    string // "HH:MM"
	End      string // "HH:MM"
}

// ClinicOfficeHours is Mon-Fri 08:00-17:00, evaluated in LocalTZ.
var ClinicOfficeHours = OfficeHours{
	Weekdays: map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	},
	Start: "08:00",
	End:   "17:00",
}

// LocalTZ returns the clinic time zone. All office-hours checks and row
// timestamps use it so behavior does not depend on the host's zone.
func LocalTZ() *time.Location {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		// Bangkok has no DST; a fixed offset is equivalent.
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}
