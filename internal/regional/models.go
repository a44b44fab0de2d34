package regional

// Check is the outcome of one independent validation.
type Check struct {
	Valid    bool      `json:"valid"`
	Errors   []string  `json:"errors"`
	Business *Business `json:"business_details,omitempty"`
}

func (c *Check) fail(msg string) *Check {
	c.Valid = false
	c.Errors = append(c.Errors, msg)
	return c
}

// Business is what the register returned for a matched entity.
type Business struct {
	ABN        string  `json:"abn"`
	EntityName string  `json:"entity_name"`
	EntityType string  `json:"entity_type"`
	Status     string  `json:"status"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Validations holds the checks that ran; absent fields were not applicable.
type Validations struct {
	Address *Check `json:"address,omitempty"`
	Phone   *Check `json:"phone,omitempty"`
	ABN     *Check `json:"abn,omitempty"`
	Company *Check `json:"company,omitempty"`
}

// Result combines every applicable check. Errors concatenates their errors.
type Result struct {
	Valid       bool        `json:"valid"`
	Errors      []string    `json:"errors"`
	Validations Validations `json:"validations"`
}

func (r *Result) add(c *Check) {
	if !c.Valid {
		r.Valid = false
		r.Errors = append(r.Errors, c.Errors...)
	}
}

// Address is the set of postal fields read from a submission.
type Address struct {
	Street   string
	Suburb   string
	State    string
	Postcode string
}
