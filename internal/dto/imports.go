package dto

// ImportOptions controls how an import run treats existing records.
type ImportOptions struct {
	UpdateDuplicates bool `json:"update_duplicates"`
	SkipDuplicates   bool `json:"skip_duplicates"`
	ValidateOnly     bool `json:"validate_only"`
	BatchSize        int  `json:"batch_size"`
}

// RowError describes a failure attributed to a single input row.
type RowError struct {
	Row     int     `json:"row"`
	Field   string  `json:"field"`
	Value   *string `json:"value,omitempty"`
	Message string  `json:"message"`
}

// ImportResult summarises one import run.
type ImportResult struct {
	Success           int        `json:"success"`
	Created           int        `json:"created"`
	Updated           int        `json:"updated"`
	DuplicatesSkipped int        `json:"duplicates_skipped"`
	Errors            []RowError `json:"errors"`
	Warnings          []string   `json:"warnings"`
}

// RemoteImportRequest asks the API to pull a dataset from the configured source.
type RemoteImportRequest struct {
	Path    string        `json:"path"`
	Options ImportOptions `json:"options"`
}
