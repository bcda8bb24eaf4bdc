package validation

// Validator checks a decoded value and returns a message per invalid field,
// or nil when the value is valid.
type Validator interface {
	ValidateStruct(s any) map[string]string
}
