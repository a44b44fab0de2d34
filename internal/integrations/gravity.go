package integrations

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"form-shield/internal/submission"
)

// GravityForms parses `{form_id, form_title, fields:[{id,label,value}]}`.
// Values are keyed by label; a field without a label falls back to
// "field_<id>". Empty values are dropped.
type GravityForms struct{}

type gravityBody struct {
	FormID    any            `json:"form_id"`
	FormTitle string         `json:"form_title"`
	Fields    []gravityField `json:"fields"`
}

type gravityField struct {
	ID    any    `json:"id"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

func (GravityForms) FormType() string { return "gravity_forms" }

func (GravityForms) Parse(r *http.Request) (Payload, error) {
	if !isJSON(r) {
		return Payload{}, fmt.Errorf("%w: expected JSON body", ErrInvalidPayload)
	}
	var body gravityBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	fields := submission.Submission{}
	for _, f := range body.Fields {
		if empty(f.Value) {
			continue
		}
		key := strings.TrimSpace(f.Label)
		if key == "" {
			key = "field_" + idString(f.ID)
		}
		fields[key] = f.Value
	}
	return Payload{
		FormID:    idString(body.FormID),
		FormTitle: body.FormTitle,
		Fields:    fields,
	}, nil
}
