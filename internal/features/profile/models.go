// Package profile — models.go описывает анкету участника.
package profile

import "time"

// Profile — анкета участника бани.
type Profile struct {
	UserID         int64
	Username       string
	FullName       string
	BirthDate      string
	Occupation     string
	Instagram      string
	Skills         string
	TotalVisits    int
	FirstVisitDate string
	LastVisitDate  string
	LastUpdated    time.Time
}
