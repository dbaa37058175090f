package models

import "time"

// Prefixes an alumna record may carry. DefaultPrefix is used when none is given.
var Prefixes = []string{"Ms.", "Mrs.", "Mr.", "Dr.", "Prof.", "Atty.", "Eng.", "Sr."}

const DefaultPrefix = "Ms."

// Alumna is a graduate record. StudentPicture and CurrentPicture hold object
// storage keys, not URLs.
type Alumna struct {
	ID             string
	Prefix         string
	FirstName      string
	MiddleName     string
	LastName       string
	Email          string
	ContactNumber  string
	BatchYearID    string
	BatchYear      int
	StudentPicture string
	CurrentPicture string
	CreatedAt      time.Time
}

// AlumnaFilter narrows an alumni listing. Zero fields do not filter.
type AlumnaFilter struct {
	Name          string
	Email         string
	ContactNumber string
	Prefix        string
	BatchYearID   string
	YearFrom      int
	YearTo        int
	Limit         int
}
