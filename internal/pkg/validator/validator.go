package validator

// Validator validates structs against their declared rules.
type Validator interface {
	// Validate returns an error describing rule violations, or nil.
	Validate(data any) error
}
