package model

// Registry identifies which roster a record came from.
type Registry string

const (
	RegistryA Registry = "A" // HR / employment registry
	RegistryB Registry = "B" // training-portal membership list
)

// RecordA is one row of the employment registry.
type RecordA struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	BirthDate   string `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
	JobType     string `json:"job_type,omitempty" yaml:"job_type,omitempty"`
	HireDate    string `json:"hire_date,omitempty" yaml:"hire_date,omitempty"`
	ResignDate  string `json:"resign_date,omitempty" yaml:"resign_date,omitempty"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// RecordB is one row of the training-portal membership list.
type RecordB struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	BirthDate   string `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
	JobType     string `json:"job_type,omitempty" yaml:"job_type,omitempty"`
	HireDate    string `json:"hire_date,omitempty" yaml:"hire_date,omitempty"`
	ResignDate  string `json:"resign_date,omitempty" yaml:"resign_date,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// FieldValues is the side-by-side snapshot of one registry's view of a person.
type FieldValues struct {
	Name        string `json:"name" yaml:"name"`
	BirthDate   string `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`
	JobType     string `json:"job_type,omitempty" yaml:"job_type,omitempty"`
	HireDate    string `json:"hire_date,omitempty" yaml:"hire_date,omitempty"`
	ResignDate  string `json:"resign_date,omitempty" yaml:"resign_date,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Values returns the registry-A snapshot. Status is rendered from IsActive.
func (r RecordA) Values() *FieldValues {
	status := "inactive"
	if r.IsActive {
		status = "active"
	}
	return &FieldValues{
		Name:        r.Name,
		BirthDate:   r.BirthDate,
		Institution: r.Institution,
		JobType:     r.JobType,
		HireDate:    r.HireDate,
		ResignDate:  r.ResignDate,
		Status:      status,
		Phone:       r.Phone,
	}
}

// Values returns the registry-B snapshot.
func (r RecordB) Values() *FieldValues {
	return &FieldValues{
		Name:        r.Name,
		BirthDate:   r.BirthDate,
		Institution: r.Institution,
		JobType:     r.JobType,
		HireDate:    r.HireDate,
		ResignDate:  r.ResignDate,
		Status:      r.Status,
	}
}
