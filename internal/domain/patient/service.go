package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careregistry/careregistry/pkg/pagination"
)

// sortColumns maps the API sort keys to table columns. Anything else falls
// back to the default ordering rather than erroring, matching the lenient
// query handling of the rest of the search surface.
var sortColumns = map[string]string{
	"lastName":  "last_name",
	"firstName": "first_name",
	"patientId": "patient_id",
	"age":       "age",
	"createdAt": "created_at",
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p *Patient) (*Patient, error) {
	p.Normalize()
	p.Age = DeriveAge(p.DateOfBirth, s.now())
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// The unique constraint is the backstop; checking first turns the common
	// duplicate-registration case into a clean error before the insert.
	if _, err := s.repo.GetByPatientID(ctx, p.PatientID); err == nil {
		return nil, ErrDuplicatePatientID
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateRequest carries a partial update. Nil fields are left untouched;
// non-nil nested objects replace the stored object wholesale. The New* fields
// append a single entry to the corresponding list; a wholesale replacement of
// the same list shadows the append when both are present.
type UpdateRequest struct {
	PatientID   *string    `json:"patientId"`
	Name        *Name      `json:"name"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Gender      *string    `json:"gender"`
	Contact     *Contact   `json:"contact"`
	Address     *Address   `json:"address"`
	BloodGroup  *string    `json:"bloodGroup"`

	Allergies            *[]string       `json:"allergies"`
	MedicalHistory       *[]HistoryEntry `json:"medicalHistory"`
	CurrentPrescriptions *[]Prescription `json:"currentPrescriptions"`
	Visits               *[]Visit        `json:"visits"`
	DoctorNotes          *[]DoctorNote   `json:"doctorNotes"`

	NewHistoryEntry *HistoryEntry `json:"newMedicalHistoryEntry"`
	NewPrescription *Prescription `json:"newPrescription"`
	NewVisit        *Visit        `json:"newVisit"`
	NewDoctorNote   *DoctorNote   `json:"newDoctorNote"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	if req.PatientID != nil {
		merged.PatientID = *req.PatientID
	}
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.DateOfBirth != nil {
		merged.DateOfBirth = *req.DateOfBirth
		merged.Age = DeriveAge(merged.DateOfBirth, s.now())
	}
	if req.Gender != nil {
		merged.Gender = *req.Gender
	}
	if req.Contact != nil {
		merged.Contact = *req.Contact
	}
	if req.Address != nil {
		merged.Address = *req.Address
	}
	if req.BloodGroup != nil {
		merged.BloodGroup = *req.BloodGroup
	}
	merged.Normalize()
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	lists := ListChanges{
		ReplaceAllergies:     req.Allergies,
		ReplaceHistory:       req.MedicalHistory,
		ReplacePrescriptions: req.CurrentPrescriptions,
		ReplaceVisits:        req.Visits,
		ReplaceDoctorNotes:   req.DoctorNotes,
	}
	// A wholesale list in the payload overrides a matching append; the
	// append only takes effect when no replacement was sent.
	if req.NewHistoryEntry != nil && lists.ReplaceHistory == nil {
		if err := req.NewHistoryEntry.Validate(); err != nil {
			return nil, err
		}
		lists.NewHistoryEntry = req.NewHistoryEntry
	}
	if req.NewPrescription != nil && lists.ReplacePrescriptions == nil {
		if err := req.NewPrescription.Validate(); err != nil {
			return nil, err
		}
		lists.NewPrescription = req.NewPrescription
	}
	if req.NewVisit != nil && lists.ReplaceVisits == nil {
		if err := req.NewVisit.Validate(); err != nil {
			return nil, err
		}
		lists.NewVisit = req.NewVisit
	}
	if req.NewDoctorNote != nil && lists.ReplaceDoctorNotes == nil {
		if err := req.NewDoctorNote.Validate(); err != nil {
			return nil, err
		}
		lists.NewDoctorNote = req.NewDoctorNote
	}
	if err := validateReplacements(lists); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, &merged, lists)
}

func validateReplacements(lists ListChanges) error {
	if lists.ReplaceHistory != nil {
		for i, e := range *lists.ReplaceHistory {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("medicalHistory[%d]: %w", i, err)
			}
		}
	}
	if lists.ReplacePrescriptions != nil {
		for i, e := range *lists.ReplacePrescriptions {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("currentPrescriptions[%d]: %w", i, err)
			}
		}
	}
	if lists.ReplaceVisits != nil {
		for i, e := range *lists.ReplaceVisits {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("visits[%d]: %w", i, err)
			}
		}
	}
	if lists.ReplaceDoctorNotes != nil {
		for i, e := range *lists.ReplaceDoctorNotes {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("doctorNotes[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, sortBy, order string, p pagination.Params) ([]*Patient, int, error) {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "last_name"
	}
	if order != "desc" {
		order = "asc"
	}
	return s.repo.List(ctx, col, order, p.Limit, p.Skip())
}

func (s *Service) Search(ctx context.Context, f SearchFilter, p pagination.Params) ([]*Patient, int, error) {
	return s.repo.Search(ctx, f, p.Limit, p.Skip())
}

func (s *Service) Analytics(ctx context.Context) (*AnalyticsReport, error) {
	return s.repo.Analytics(ctx, s.now())
}
