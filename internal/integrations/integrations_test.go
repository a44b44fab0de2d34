package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-shield/internal/submission"
	"form-shield/internal/validation"
)

func TestGravityForms_Parse(t *testing.T) {
	body := `{"form_id":7,"form_title":"Contact","fields":[
		{"id":1,"label":"Name","value":"Ann"},
		{"id":2,"label":"Email","value":"ann@example.com"},
		{"id":3,"label":"Company","value":""},
		{"id":4,"label":"","value":"no label"}
	]}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := GravityForms{}.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, "7", p.FormID)
	assert.Equal(t, "Contact", p.FormTitle)
	assert.Equal(t, submission.Submission{
		"Name":    "Ann",
		"Email":   "ann@example.com",
		"field_4": "no label",
	}, p.Fields)
}

func TestGravityForms_RejectsMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	_, err := GravityForms{}.Parse(r)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestElementor_ParseJSON(t *testing.T) {
	body := `{"form_id":"abc","form_name":"Quote","fields":{
		"name":{"title":"Name","value":"Bob"},
		"msg":{"title":"","value":"hello"},
		"phone":{"title":"Phone","value":""}
	}}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := Elementor{}.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", p.FormID)
	assert.Equal(t, "Quote", p.FormTitle)
	assert.Equal(t, submission.Submission{"Name": "Bob", "msg": "hello"}, p.Fields)
}

func TestElementor_ParseForm(t *testing.T) {
	form := url.Values{}
	form.Set("form_id", "42")
	form.Set("form_name", "Enquiry")
	form.Set("form_fields[name]", "Cat")
	form.Set("form_fields[email]", "cat@example.com")
	form.Set("form_fields[empty]", " ")
	form.Set("unrelated", "x")
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, err := Elementor{}.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, "42", p.FormID)
	assert.Equal(t, "Enquiry", p.FormTitle)
	assert.Equal(t, submission.Submission{"name": "Cat", "email": "cat@example.com"}, p.Fields)
}

type stubScreener struct {
	out validation.Outcome
	got validation.Request
}

func (s *stubScreener) Screen(_ context.Context, req validation.Request) validation.Outcome {
	s.got = req
	return s.out
}

func serve(t *testing.T, s Screener, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r.Group("/integrations"), s, GravityForms{}, Elementor{})

	req := httptest.NewRequest(http.MethodPost, "/integrations/gravityforms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.5:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const gravityBodyFixture = `{"form_id":3,"form_title":"Contact","fields":[{"id":1,"label":"Message","value":"buy now"}]}`

func TestHandler_Blocked(t *testing.T) {
	s := &stubScreener{out: validation.Outcome{
		Status:       submission.StatusSpam,
		RecordID:     11,
		BlockMessage: "Nope.",
	}}
	w := serve(t, s, gravityBodyFixture)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["is_valid"])
	assert.Equal(t, "Nope.", resp["message"])
	assert.Equal(t, float64(11), resp["submission_id"])

	assert.Equal(t, "gravity_forms", s.got.FormType)
	assert.Equal(t, "3", s.got.FormID)
	assert.Equal(t, "Contact", s.got.FormTitle)
	assert.Equal(t, "203.0.113.5", s.got.IP)
}

func TestHandler_Allowed(t *testing.T) {
	s := &stubScreener{out: validation.Outcome{Status: submission.StatusApproved, RecordID: 12}}
	w := serve(t, s, gravityBodyFixture)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_valid":true,"submission_id":12}`, w.Body.String())
}

func TestHandler_ProtectionDisabledPassesThrough(t *testing.T) {
	s := &stubScreener{out: validation.Outcome{Skipped: true, Status: submission.StatusApproved}}
	w := serve(t, s, gravityBodyFixture)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_valid":true}`, w.Body.String())
}

func TestHandler_BadPayload(t *testing.T) {
	w := serve(t, &stubScreener{}, "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
