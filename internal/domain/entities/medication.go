package entities

// Medication holds the structured fields extracted from one prescription line.
type Medication struct {
	DrugName  string `json:"drug_name" db:"drug_name"`
	Dosage    string `json:"dosage" db:"dosage"`
	Frequency string `json:"frequency" db:"frequency"`
	Route     string `json:"route" db:"route"`
	Duration  string `json:"duration" db:"duration"`
}

// ExtractedData is the payload a ConfidenceScore carries for reviewer display.
// The scorer treats it as opaque.
type ExtractedData struct {
	Medications []Medication `json:"medications"`
	FullText    string       `json:"full_text,omitempty"`
}

// DrugValidation is the result of checking one medication against the drug
// database collaborator.
type DrugValidation struct {
	DrugName       string `json:"drug_name"`
	DrugValid      bool   `json:"drug_valid"`
	DosageValid    bool   `json:"dosage_valid"`
	NormalizedName string `json:"normalized_name,omitempty"`
}
