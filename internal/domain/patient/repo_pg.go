package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careregistry/careregistry/internal/platform/query"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, patient_id, first_name, last_name, date_of_birth, age, gender,
	phone, email, street, city, state, zip_code, blood_group,
	allergies, medical_history, current_prescriptions, visits, doctor_notes,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	p := &Patient{}
	err := row.Scan(
		&p.ID, &p.PatientID, &p.Name.FirstName, &p.Name.LastName, &p.DateOfBirth, &p.Age, &p.Gender,
		&p.Contact.Phone, &p.Contact.Email, &p.Address.Street, &p.Address.City, &p.Address.State,
		&p.Address.ZipCode, &p.BloodGroup,
		&p.Allergies, &p.MedicalHistory, &p.CurrentPrescriptions, &p.Visits, &p.DoctorNotes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patient (
			id, patient_id, first_name, last_name, date_of_birth, age, gender,
			phone, email, street, city, state, zip_code, blood_group,
			allergies, medical_history, current_prescriptions, visits, doctor_notes
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11,$12,$13,$14,
			$15,$16,$17,$18,$19
		) RETURNING created_at, updated_at`,
		p.ID, p.PatientID, p.Name.FirstName, p.Name.LastName, p.DateOfBirth, p.Age, p.Gender,
		p.Contact.Phone, p.Contact.Email, p.Address.Street, p.Address.City, p.Address.State,
		p.Address.ZipCode, p.BloodGroup,
		p.Allergies, p.MedicalHistory, p.CurrentPrescriptions, p.Visits, p.DoctorNotes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePatientID
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE patient_id = $1`, patientID))
}

// Update writes the merged scalar fields and applies list changes in a single
// statement. Appends use jsonb concatenation so the store, not this process,
// extends the list; a concurrent append to the same record cannot be lost.
func (r *repoPG) Update(ctx context.Context, p *Patient, lists ListChanges) (*Patient, error) {
	set := []string{
		"patient_id=$2", "first_name=$3", "last_name=$4", "date_of_birth=$5", "age=$6",
		"gender=$7", "phone=$8", "email=$9", "street=$10", "city=$11", "state=$12",
		"zip_code=$13", "blood_group=$14", "updated_at=NOW()",
	}
	args := []interface{}{
		p.ID, p.PatientID, p.Name.FirstName, p.Name.LastName, p.DateOfBirth, p.Age,
		p.Gender, p.Contact.Phone, p.Contact.Email, p.Address.Street, p.Address.City,
		p.Address.State, p.Address.ZipCode, p.BloodGroup,
	}
	idx := len(args) + 1

	addSet := func(clause string, arg interface{}) {
		set = append(set, fmt.Sprintf(clause, idx))
		args = append(args, arg)
		idx++
	}

	if lists.ReplaceAllergies != nil {
		addSet("allergies=$%d", *lists.ReplaceAllergies)
	}
	if lists.ReplaceHistory != nil {
		addSet("medical_history=$%d", *lists.ReplaceHistory)
	} else if lists.NewHistoryEntry != nil {
		addSet("medical_history = medical_history || $%d::jsonb", *lists.NewHistoryEntry)
	}
	if lists.ReplacePrescriptions != nil {
		addSet("current_prescriptions=$%d", *lists.ReplacePrescriptions)
	} else if lists.NewPrescription != nil {
		addSet("current_prescriptions = current_prescriptions || $%d::jsonb", *lists.NewPrescription)
	}
	if lists.ReplaceVisits != nil {
		addSet("visits=$%d", *lists.ReplaceVisits)
	} else if lists.NewVisit != nil {
		addSet("visits = visits || $%d::jsonb", *lists.NewVisit)
	}
	if lists.ReplaceDoctorNotes != nil {
		addSet("doctor_notes=$%d", *lists.ReplaceDoctorNotes)
	} else if lists.NewDoctorNote != nil {
		addSet("doctor_notes = doctor_notes || $%d::jsonb", *lists.NewDoctorNote)
	}

	sql := fmt.Sprintf(`UPDATE patient SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(set, ", "), patientCols)

	updated, err := scanPatient(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicatePatientID
		}
		return nil, err
	}
	return updated, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, sortColumn, order string, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM patient ORDER BY %s %s, last_name, first_name LIMIT $1 OFFSET $2`,
		patientCols, sortColumn, order)
	rows, err := r.pool.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return collectPatients(rows, total)
}

func (r *repoPG) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Patient, int, error) {
	qb := query.New("patient", patientCols)

	if f.Query != "" {
		qb.AddFullText("search_tsv", f.Query)
	}
	if f.PatientID != "" {
		qb.AddContains("patient_id", f.PatientID)
	}
	if f.FirstName != "" {
		qb.AddContains("first_name", f.FirstName)
	}
	if f.LastName != "" {
		qb.AddContains("last_name", f.LastName)
	}
	if f.Condition != "" {
		needle := "%" + query.EscapeLike(f.Condition) + "%"
		qb.Add(fmt.Sprintf(`(EXISTS (
			SELECT 1 FROM jsonb_array_elements(medical_history) mh
			WHERE mh->>'condition' ILIKE $%d
		) OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(current_prescriptions) rx
			WHERE rx->>'medicationName' ILIKE $%d
		))`, qb.Idx(), qb.Idx()+1), needle, needle)
	}
	if f.VisitDate != nil {
		d := *f.VisitDate
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		end := start.AddDate(0, 0, 1)
		qb.Add(fmt.Sprintf(`EXISTS (
			SELECT 1 FROM jsonb_array_elements(visits) v
			WHERE (v->>'visitDate')::timestamptz >= $%d
			  AND (v->>'visitDate')::timestamptz < $%d
		)`, qb.Idx(), qb.Idx()+1), start, end)
	}
	qb.OrderBy("last_name, first_name")

	var total int
	if err := r.pool.QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return collectPatients(rows, total)
}

func collectPatients(rows pgx.Rows, total int) ([]*Patient, int, error) {
	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// Analytics runs the five aggregation pipelines. Each scans the full
// collection without snapshot pinning; under concurrent writes the pipelines
// may see a mix of record states.
func (r *repoPG) Analytics(ctx context.Context, now time.Time) (*AnalyticsReport, error) {
	report := NewAnalyticsReport()

	rows, err := r.pool.Query(ctx, `
		SELECT mh->>'condition' AS condition, COUNT(*) AS total
		FROM patient, jsonb_array_elements(medical_history) mh
		GROUP BY 1
		ORDER BY total DESC, condition ASC`)
	if err != nil {
		return nil, fmt.Errorf("patients per condition: %w", err)
	}
	for rows.Next() {
		var row ConditionCount
		if err := rows.Scan(&row.Condition, &row.Count); err != nil {
			rows.Close()
			return nil, err
		}
		report.PatientsPerCondition = append(report.PatientsPerCondition, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT rx->>'medicationName' AS medication, COUNT(*) AS total
		FROM patient, jsonb_array_elements(current_prescriptions) rx
		GROUP BY 1
		ORDER BY total DESC, medication ASC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("most prescribed medications: %w", err)
	}
	for rows.Next() {
		var row MedicationCount
		if err := rows.Scan(&row.MedicationName, &row.Count); err != nil {
			rows.Close()
			return nil, err
		}
		report.MostPrescribedMedications = append(report.MostPrescribedMedications, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT gender, AVG(age)::float8
		FROM patient
		GROUP BY gender
		ORDER BY gender ASC`)
	if err != nil {
		return nil, fmt.Errorf("average age per gender: %w", err)
	}
	for rows.Next() {
		var row GenderAverage
		if err := rows.Scan(&row.Gender, &row.AverageAge); err != nil {
			rows.Close()
			return nil, err
		}
		report.AvgAgePerGender = append(report.AvgAgePerGender, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One row per visit: a patient seen twice by a doctor weighs twice.
	rows, err = r.pool.Query(ctx, `
		SELECT v->>'doctorName' AS doctor, AVG(age)::float8 AS avg_age
		FROM patient, jsonb_array_elements(visits) v
		GROUP BY 1
		ORDER BY avg_age DESC, doctor ASC`)
	if err != nil {
		return nil, fmt.Errorf("average age per doctor: %w", err)
	}
	for rows.Next() {
		var row DoctorAverage
		if err := rows.Scan(&row.DoctorName, &row.AverageAge); err != nil {
			rows.Close()
			return nil, err
		}
		report.AvgAgePerDoctor = append(report.AvgAgePerDoctor, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	since := now.AddDate(-1, 0, 0)
	rows, err = r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM (v->>'visitDate')::timestamptz)::int AS year,
		       EXTRACT(MONTH FROM (v->>'visitDate')::timestamptz)::int AS month,
		       COUNT(*) AS total
		FROM patient, jsonb_array_elements(visits) v
		WHERE (v->>'visitDate')::timestamptz >= $1
		GROUP BY 1, 2
		ORDER BY 1, 2`, since)
	if err != nil {
		return nil, fmt.Errorf("visits per month: %w", err)
	}
	for rows.Next() {
		var row MonthlyVisits
		if err := rows.Scan(&row.Year, &row.Month, &row.Count); err != nil {
			rows.Close()
			return nil, err
		}
		report.VisitsPerMonth = append(report.VisitsPerMonth, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return report, nil
}
