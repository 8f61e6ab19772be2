package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchFilter carries the optional search criteria. Absent criteria are
// zero-valued and contribute no predicate.
type SearchFilter struct {
	Query     string     // full-text across the whole record
	PatientID string     // case-insensitive substring
	FirstName string     // case-insensitive substring
	LastName  string     // case-insensitive substring
	Condition string     // substring of a history condition OR a medication name
	VisitDate *time.Time // any visit within this calendar day
}

// ListChanges describes how the embedded lists of a record change on update.
// For each list either Replace* carries a wholesale replacement, or New*
// carries a single entry to append atomically in the store, or neither and
// the stored list is left untouched.
type ListChanges struct {
	ReplaceAllergies     *[]string
	ReplaceHistory       *[]HistoryEntry
	ReplacePrescriptions *[]Prescription
	ReplaceVisits        *[]Visit
	ReplaceDoctorNotes   *[]DoctorNote

	NewHistoryEntry *HistoryEntry
	NewPrescription *Prescription
	NewVisit        *Visit
	NewDoctorNote   *DoctorNote
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	// Update persists the record's scalar fields and applies the list
	// changes, returning the record as stored. Appends are executed by the
	// store itself so concurrent appenders cannot overwrite each other.
	Update(ctx context.Context, p *Patient, lists ListChanges) (*Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, sortColumn, order string, limit, offset int) ([]*Patient, int, error)
	Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Patient, int, error)
	Analytics(ctx context.Context, now time.Time) (*AnalyticsReport, error)
}
