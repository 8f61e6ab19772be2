package patient

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Name is the patient's legal name.
type Name struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Contact holds reachability details. Phone is required; email is optional
// and stored lower-cased.
type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Address is free-form; every field is optional.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// HistoryEntry is one diagnosed condition in the medical history list.
type HistoryEntry struct {
	Date        *time.Time `json:"date,omitempty"`
	Condition   string     `json:"condition"`
	Notes       string     `json:"notes,omitempty"`
	DiagnosedBy string     `json:"diagnosedBy,omitempty"`
}

// Prescription is one entry in the current prescriptions list.
type Prescription struct {
	MedicationName string     `json:"medicationName"`
	Dosage         string     `json:"dosage"`
	Frequency      string     `json:"frequency"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// Visit is one clinical encounter.
type Visit struct {
	VisitDate   *time.Time `json:"visitDate,omitempty"`
	DoctorName  string     `json:"doctorName"`
	Diagnosis   string     `json:"diagnosis"`
	Notes       string     `json:"notes,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}

// DoctorNote is one free-text note recorded against the patient.
type DoctorNote struct {
	Date       *time.Time `json:"date,omitempty"`
	Note       string     `json:"note"`
	RecordedBy string     `json:"recordedBy,omitempty"`
}

// Patient is the root record. The four embedded lists are append-or-replace:
// entries are never edited individually.
type Patient struct {
	ID                   uuid.UUID      `json:"id"`
	PatientID            string         `json:"patientId"`
	Name                 Name           `json:"name"`
	DateOfBirth          time.Time      `json:"dateOfBirth"`
	Age                  int            `json:"age"`
	Gender               string         `json:"gender"`
	Contact              Contact        `json:"contact"`
	Address              Address        `json:"address"`
	BloodGroup           string         `json:"bloodGroup,omitempty"`
	Allergies            []string       `json:"allergies"`
	MedicalHistory       []HistoryEntry `json:"medicalHistory"`
	CurrentPrescriptions []Prescription `json:"currentPrescriptions"`
	Visits               []Visit        `json:"visits"`
	DoctorNotes          []DoctorNote   `json:"doctorNotes"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// Genders accepted by Validate.
var Genders = []string{"Male", "Female", "Other"}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// DeriveAge computes whole years of age from elapsed wall-clock time: the
// elapsed duration since birth is treated as an instant after the Unix epoch
// and the UTC year offset from 1970 is taken, absolute value. This matches
// the legacy system exactly and can be off by one day near a birthday due to
// leap-year rounding.
func DeriveAge(dob, now time.Time) int {
	elapsed := now.UnixMilli() - dob.UnixMilli()
	years := time.UnixMilli(elapsed).UTC().Year() - 1970
	if years < 0 {
		years = -years
	}
	return years
}

// Normalize trims and canonicalises identifying fields before validation:
// patientId upper-cased, email lower-cased.
func (p *Patient) Normalize() {
	p.PatientID = strings.ToUpper(strings.TrimSpace(p.PatientID))
	p.Name.FirstName = strings.TrimSpace(p.Name.FirstName)
	p.Name.LastName = strings.TrimSpace(p.Name.LastName)
	p.Contact.Phone = strings.TrimSpace(p.Contact.Phone)
	p.Contact.Email = strings.ToLower(strings.TrimSpace(p.Contact.Email))
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []HistoryEntry{}
	}
	if p.CurrentPrescriptions == nil {
		p.CurrentPrescriptions = []Prescription{}
	}
	if p.Visits == nil {
		p.Visits = []Visit{}
	}
	if p.DoctorNotes == nil {
		p.DoctorNotes = []DoctorNote{}
	}
}

// Validate checks required fields and enum constraints across the whole
// record, including every embedded list entry. It never mutates the record.
func (p *Patient) Validate() error {
	if p.PatientID == "" {
		return fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	if p.Name.FirstName == "" || p.Name.LastName == "" {
		return fmt.Errorf("%w: name.firstName and name.lastName are required", ErrValidation)
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("%w: dateOfBirth is required", ErrValidation)
	}
	if !validGender(p.Gender) {
		return fmt.Errorf("%w: gender must be one of %s", ErrValidation, strings.Join(Genders, ", "))
	}
	if p.Contact.Phone == "" {
		return fmt.Errorf("%w: contact.phone is required", ErrValidation)
	}
	if p.Contact.Email != "" && !emailPattern.MatchString(p.Contact.Email) {
		return fmt.Errorf("%w: contact.email is not a valid email address", ErrValidation)
	}
	for i, e := range p.MedicalHistory {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("medicalHistory[%d]: %w", i, err)
		}
	}
	for i, rx := range p.CurrentPrescriptions {
		if err := rx.Validate(); err != nil {
			return fmt.Errorf("currentPrescriptions[%d]: %w", i, err)
		}
	}
	for i, v := range p.Visits {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("visits[%d]: %w", i, err)
		}
	}
	for i, n := range p.DoctorNotes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("doctorNotes[%d]: %w", i, err)
		}
	}
	return nil
}

func (e HistoryEntry) Validate() error {
	if strings.TrimSpace(e.Condition) == "" {
		return fmt.Errorf("%w: condition is required", ErrValidation)
	}
	return nil
}

func (rx Prescription) Validate() error {
	if strings.TrimSpace(rx.MedicationName) == "" {
		return fmt.Errorf("%w: medicationName is required", ErrValidation)
	}
	if strings.TrimSpace(rx.Dosage) == "" {
		return fmt.Errorf("%w: dosage is required", ErrValidation)
	}
	if strings.TrimSpace(rx.Frequency) == "" {
		return fmt.Errorf("%w: frequency is required", ErrValidation)
	}
	return nil
}

func (v Visit) Validate() error {
	if strings.TrimSpace(v.DoctorName) == "" {
		return fmt.Errorf("%w: doctorName is required", ErrValidation)
	}
	if strings.TrimSpace(v.Diagnosis) == "" {
		return fmt.Errorf("%w: diagnosis is required", ErrValidation)
	}
	return nil
}

func (n DoctorNote) Validate() error {
	if strings.TrimSpace(n.Note) == "" {
		return fmt.Errorf("%w: note is required", ErrValidation)
	}
	return nil
}

func validGender(g string) bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}
