package regional

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"form-shield/internal/submission"
	"form-shield/pkg/logger"
)

var (
	suburbPattern   = regexp.MustCompile(`^[a-zA-Z\s\-']{2,50}$`)
	postcodePattern = regexp.MustCompile(`^(0[289][0-9]{2}|[1-9][0-9]{3})$`)
	phoneStrip      = regexp.MustCompile(`[\s\-()]`)
	mobilePattern   = regexp.MustCompile(`^(\+?61|0)?4\d{8}$`)
	landlinePattern = regexp.MustCompile(`^(\+?61|0)?[2378]\d{8}$`)
	specialPattern  = regexp.MustCompile(`^(13\d{4}|1300\d{6}|1800\d{6})$`)
	abnPattern      = regexp.MustCompile(`^\d{11}$`)
	whitespace      = regexp.MustCompile(`\s`)

	abnWeights = [11]int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

	postcodeRanges = map[string][][2]int{
		"NSW": {{1000, 2599}, {2619, 2899}, {2921, 2999}},
		"ACT": {{200, 299}, {2600, 2618}, {2900, 2920}},
		"VIC": {{3000, 3999}, {8000, 8999}},
		"QLD": {{4000, 4999}, {9000, 9999}},
		"SA":  {{5000, 5799}, {5800, 5999}},
		"WA":  {{6000, 6797}, {6800, 6999}},
		"TAS": {{7000, 7799}, {7800, 7999}},
		"NT":  {{800, 899}, {900, 999}},
	}
)

const (
	abnNameMatchPercent     = 70.0
	companyNameMatchPercent = 85.0
	maxActiveMatches        = 5
)

// KeySource returns the plaintext register API key, or "" when none is set.
type KeySource func(ctx context.Context) string

// Validator checks Australian postal, phone and business data. Register
// problems come back as failed checks, never as errors.
type Validator struct {
	abr ABRClient
	key KeySource
}

func NewValidator(abr ABRClient, key KeySource) *Validator {
	if key == nil {
		key = func(context.Context) string { return "" }
	}
	return &Validator{abr: abr, key: key}
}

// ValidateAll runs every check whose fields are present in sub.
func (v *Validator) ValidateAll(ctx context.Context, sub submission.Submission) Result {
	res := Result{Valid: true, Errors: []string{}}

	if sub.Has("street") || sub.Has("suburb") || sub.Has("state") || sub.Has("postcode") {
		c := v.ValidateAddress(Address{
			Street:   sub.Get("street"),
			Suburb:   sub.Get("suburb"),
			State:    sub.Get("state"),
			Postcode: sub.Get("postcode"),
		})
		res.Validations.Address = c
		res.add(c)
	}

	if phone := sub.Get("phone"); phone != "" {
		c := v.ValidatePhone(phone)
		res.Validations.Phone = c
		res.add(c)
	}

	if abn := sub.Get("abn"); abn != "" {
		c := v.ValidateABN(ctx, abn, firstPresent(sub, "business_name", "company"))
		res.Validations.ABN = c
		res.add(c)
	} else if name := firstPresent(sub, "business_name", "company", "business"); name != "" {
		c := v.ValidateCompanyName(ctx, name)
		res.Validations.Company = c
		res.add(c)
	}

	return res
}

func (v *Validator) ValidateAddress(a Address) *Check {
	c := &Check{Valid: true}

	switch {
	case a.Street == "":
		c.fail("Street address is required")
	case len(a.Street) < 3 || len(a.Street) > 100:
		c.fail("Invalid street address length")
	}

	switch {
	case a.Suburb == "":
		c.fail("Suburb is required")
	case !suburbPattern.MatchString(a.Suburb):
		c.fail("Invalid suburb format")
	}

	state := strings.ToUpper(a.State)
	switch {
	case a.State == "":
		c.fail("State is required")
	case postcodeRanges[state] == nil:
		c.fail("Invalid Australian state")
	}

	switch {
	case a.Postcode == "":
		c.fail("Postcode is required")
	case !postcodePattern.MatchString(a.Postcode):
		c.fail("Invalid Australian postcode")
	case !postcodeInState(a.Postcode, state):
		c.fail("Postcode does not match state")
	}
	return c
}

func postcodeInState(postcode, state string) bool {
	n, err := strconv.Atoi(postcode)
	if err != nil {
		return false
	}
	for _, r := range postcodeRanges[state] {
		if n >= r[0] && n <= r[1] {
			return true
		}
	}
	return false
}

// ValidatePhone accepts mobile, landline and 13/1300/1800 numbers.
func (v *Validator) ValidatePhone(phone string) *Check {
	c := &Check{Valid: true}
	clean := phoneStrip.ReplaceAllString(phone, "")
	if !mobilePattern.MatchString(clean) &&
		!landlinePattern.MatchString(clean) &&
		!specialPattern.MatchString(clean) {
		c.fail("Invalid Australian phone number format")
	}
	return c
}

// ValidABNChecksum applies the modulus 89 weighting to an 11-digit ABN.
func ValidABNChecksum(abn string) bool {
	if !abnPattern.MatchString(abn) {
		return false
	}
	sum := 0
	for i := 0; i < 11; i++ {
		d := int(abn[i] - '0')
		if i == 0 {
			d--
		}
		sum += d * abnWeights[i]
	}
	return sum%89 == 0
}

// ValidateABN checks format and checksum, then confirms the ABN is active in
// the register. A supplied business name must resemble the registered one.
func (v *Validator) ValidateABN(ctx context.Context, abn, businessName string) *Check {
	c := &Check{}
	clean := whitespace.ReplaceAllString(abn, "")

	if !abnPattern.MatchString(clean) {
		return c.fail("ABN must be 11 digits")
	}
	if !ValidABNChecksum(clean) {
		return c.fail("Invalid ABN checksum")
	}

	key := v.key(ctx)
	if key == "" || v.abr == nil {
		return c.fail("ABN API key not configured")
	}

	d, err := v.abr.AbnDetails(ctx, key, clean)
	if err != nil {
		logger.From(ctx).Warn("abn lookup failed", "err", err)
		return c.fail("Failed to connect to ABN Lookup API")
	}
	if d.Message != "" || (d.Abn == "" && d.EntityName == "") {
		return c.fail("ABN not found or invalid")
	}
	if d.EntityStatusCode != "" && d.EntityStatusCode != "Active" {
		return c.fail("ABN is not active")
	}

	c.Business = &Business{
		ABN:        d.Abn,
		EntityName: d.EntityName,
		EntityType: d.EntityTypeName,
		Status:     d.EntityStatusCode,
	}
	if businessName != "" && d.EntityName != "" {
		if SimilarityPercent(businessName, d.EntityName) < abnNameMatchPercent {
			return c.fail("Business name does not match ABN record")
		}
	}
	c.Valid = true
	return c
}

// ValidateCompanyName requires a close match among active registered names.
func (v *Validator) ValidateCompanyName(ctx context.Context, name string) *Check {
	c := &Check{}
	if len(strings.TrimSpace(name)) < 2 {
		return c.fail("Company name is too short")
	}

	key := v.key(ctx)
	if key == "" || v.abr == nil {
		return c.fail("ABN API key not configured")
	}

	found, err := v.abr.MatchingNames(ctx, key, name)
	if err != nil {
		logger.From(ctx).Warn("business name search failed", "err", err)
		return c.fail("Failed to connect to ABN Lookup API")
	}
	if found.Message != "" {
		return c.fail("Error searching for business name")
	}
	if len(found.Names) == 0 {
		return c.fail("Company name not found in Australian Business Register")
	}

	active := 0
	for _, b := range found.Names {
		if !strings.EqualFold(b.AbnStatus, "active") {
			continue
		}
		active++
		pct := SimilarityPercent(strings.TrimSpace(name), strings.TrimSpace(b.Name))
		if pct >= companyNameMatchPercent {
			c.Valid = true
			c.Business = &Business{
				ABN:        b.Abn,
				EntityName: b.Name,
				EntityType: b.EntityTypeName,
				Status:     b.AbnStatus,
				Similarity: pct,
			}
			return c
		}
	}

	switch {
	case active == 0:
		return c.fail("No active business found with this name")
	case active > maxActiveMatches:
		return c.fail("Company name is too generic (multiple businesses found)")
	default:
		return c.fail("Company name does not closely match any registered business")
	}
}

// firstPresent returns the value of the first key present in sub, even when
// that value is empty.
func firstPresent(sub submission.Submission, keys ...string) string {
	for _, k := range keys {
		if sub.Has(k) {
			return sub.Get(k)
		}
	}
	return ""
}
