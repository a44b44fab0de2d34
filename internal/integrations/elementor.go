package integrations

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"form-shield/internal/submission"
)

// Elementor accepts either a JSON body
// `{form_id, form_name, fields:{<id>:{title,value}}}` or the form-encoded
// `form_fields[<id>]=value` post. JSON values are keyed by title, falling
// back to the field id.
type Elementor struct{}

type elementorBody struct {
	FormID   any                       `json:"form_id"`
	FormName string                    `json:"form_name"`
	Fields   map[string]elementorField `json:"fields"`
}

type elementorField struct {
	Title string `json:"title"`
	Value any    `json:"value"`
}

func (Elementor) FormType() string { return "elementor" }

func (e Elementor) Parse(r *http.Request) (Payload, error) {
	if isJSON(r) {
		return e.parseJSON(r)
	}
	return e.parseForm(r)
}

func (Elementor) parseJSON(r *http.Request) (Payload, error) {
	var body elementorBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	fields := submission.Submission{}
	for id, f := range body.Fields {
		if empty(f.Value) {
			continue
		}
		key := strings.TrimSpace(f.Title)
		if key == "" {
			key = id
		}
		fields[key] = f.Value
	}
	return Payload{FormID: idString(body.FormID), FormTitle: body.FormName, Fields: fields}, nil
}

func (Elementor) parseForm(r *http.Request) (Payload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	fields := submission.Submission{}
	for k, vs := range r.PostForm {
		if !strings.HasPrefix(k, "form_fields[") || !strings.HasSuffix(k, "]") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(k, "form_fields["), "]")
		if id == "" || len(vs) == 0 {
			continue
		}
		var v any = vs[0]
		if len(vs) > 1 {
			list := make([]any, len(vs))
			for i, s := range vs {
				list[i] = s
			}
			v = list
		}
		if empty(v) {
			continue
		}
		fields[id] = v
	}
	return Payload{
		FormID:    r.PostFormValue("form_id"),
		FormTitle: r.PostFormValue("form_name"),
		Fields:    fields,
	}, nil
}
