package model

// Patient is one intake form submission stored in the patients table.
type Patient struct {
	ID     uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name   string  `json:"name" gorm:"type:varchar(255);not null"`
	Rollno int64   `json:"rollno" gorm:"not null"`
	City   string  `json:"city" gorm:"type:varchar(255);not null"`
	Info   *string `json:"info" gorm:"type:text"`
}

func (Patient) TableName() string {
	return "patients"
}

// Submission holds the typed fields of a validated submit payload.
type Submission struct {
	Name   string
	Rollno int64
	City   string
	Info   *string
}

// Patient converts the submission into a record ready for insertion.
func (s Submission) Patient() Patient {
	return Patient{
		Name:   s.Name,
		Rollno: s.Rollno,
		City:   s.City,
		Info:   s.Info,
	}
}
