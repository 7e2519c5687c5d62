package identity

import (
	"time"
)

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

type Patient struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	NationalID       string    `json:"national_id"`
	BirthDate        time.Time `json:"birth_date"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	EmergencyContact *string   `json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreatePatientRequest struct {
	Name             string  `json:"name" validate:"required,min=2,max=200"`
	NationalID       string  `json:"national_id" validate:"required,min=5,max=32"`
	BirthDate        string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Phone            *string `json:"phone" validate:"omitempty,max=40"`
	Address          *string `json:"address" validate:"omitempty,max=500"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=500"`
}

// ToPatient builds the record to insert. BirthDate must already have passed
// validation.
func (r *CreatePatientRequest) ToPatient() (*Patient, error) {
	birth, err := time.Parse(DateLayout, r.BirthDate)
	if err != nil {
		return nil, err
	}
	return &Patient{
		Name:             r.Name,
		NationalID:       r.NationalID,
		BirthDate:        birth,
		Phone:            r.Phone,
		Address:          r.Address,
		EmergencyContact: r.EmergencyContact,
	}, nil
}

// UpdatePatientRequest changes contact details. Nil fields are left as is;
// national id and birth date are immutable.
type UpdatePatientRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=2,max=200"`
	Phone            *string `json:"phone" validate:"omitempty,max=40"`
	Address          *string `json:"address" validate:"omitempty,max=500"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=500"`
}

func (r *UpdatePatientRequest) Apply(p *Patient) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Phone != nil {
		p.Phone = r.Phone
	}
	if r.Address != nil {
		p.Address = r.Address
	}
	if r.EmergencyContact != nil {
		p.EmergencyContact = r.EmergencyContact
	}
}

// CaregiverLink grants a caregiver user read access to one patient.
type CaregiverLink struct {
	ID              int64     `json:"id"`
	PatientID       int64     `json:"patient_id"`
	CaregiverUserID int64     `json:"caregiver_user_id"`
	Degree          *string   `json:"degree,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateCaregiverLinkRequest struct {
	CaregiverUserID int64   `json:"caregiver_user_id" validate:"required,gt=0"`
	Degree          *string `json:"degree" validate:"omitempty,max=60"`
}
