package questiongen

// Validator checks a parsed item. Implementations are stateless and safe
// for concurrent use.
type Validator interface {
	// Name is a short identifier used in error messages and logs.
	Name() string

	// Validate returns nil if the item passes.
	Validate(item *Item, in Input) *ValidationError
}

// runValidators runs the chain in order and returns the first failure.
func runValidators(validators []Validator, item *Item, in Input) *ValidationError {
	for _, v := range validators {
		if verr := v.Validate(item, in); verr != nil {
			return verr
		}
	}
	return nil
}
