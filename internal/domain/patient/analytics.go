package patient

// ConditionCount is one row of the patients-per-condition pipeline.
type ConditionCount struct {
	Condition string `json:"condition"`
	Count     int    `json:"count"`
}

// MedicationCount is one row of the most-prescribed-medications pipeline.
type MedicationCount struct {
	MedicationName string `json:"medicationName"`
	Count          int    `json:"count"`
}

// GenderAverage is one row of the average-age-per-gender pipeline.
type GenderAverage struct {
	Gender     string  `json:"gender"`
	AverageAge float64 `json:"averageAge"`
}

// DoctorAverage is one row of the average-age-per-doctor pipeline. The
// average is taken over visit rows, so a patient seen twice by the same
// doctor counts twice; this mirrors the legacy aggregation.
type DoctorAverage struct {
	DoctorName string  `json:"doctorName"`
	AverageAge float64 `json:"averageAge"`
}

// MonthlyVisits is one row of the visits-per-month pipeline.
type MonthlyVisits struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// AnalyticsReport bundles the five independent pipelines. Pipelines with no
// matching data hold empty slices, never nil, so clients always see arrays.
type AnalyticsReport struct {
	PatientsPerCondition      []ConditionCount  `json:"patientsPerCondition"`
	MostPrescribedMedications []MedicationCount `json:"mostPrescribedMedications"`
	AvgAgePerGender           []GenderAverage   `json:"avgAgePerGender"`
	AvgAgePerDoctor           []DoctorAverage   `json:"avgAgePerDoctor"`
	VisitsPerMonth            []MonthlyVisits   `json:"visitsPerMonth"`
}

// NewAnalyticsReport returns a report with all five arrays initialised.
func NewAnalyticsReport() *AnalyticsReport {
	return &AnalyticsReport{
		PatientsPerCondition:      []ConditionCount{},
		MostPrescribedMedications: []MedicationCount{},
		AvgAgePerGender:           []GenderAverage{},
		AvgAgePerDoctor:           []DoctorAverage{},
		VisitsPerMonth:            []MonthlyVisits{},
	}
}
