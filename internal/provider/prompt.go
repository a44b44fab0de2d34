package provider

import (
	"fmt"
	"strings"

	"form-shield/internal/submission"
)

// SystemPrompt is sent with every analysis request.
const SystemPrompt = `You are an expert spam detection system specialized in identifying spam in contact form submissions.

Analyze the submission and return ONLY a JSON object with these exact fields:
{
	"is_spam": boolean,
	"spam_score": number (0-100),
	"reason": string
}

Spam indicators to check:
1. Generic/template messages ("I want to increase your traffic", "Great website")
2. Excessive URLs or promotional content
3. SEO/marketing service offers
4. Cryptocurrency/investment schemes
5. Adult content or inappropriate language
6. Gibberish text or random character strings
7. Suspicious email patterns (temporary emails, numeric sequences)
8. Form field misuse (URLs in name fields, keywords stuffing)
9. Non-contextual or irrelevant content
10. Poor grammar combined with promotional intent

Legitimate indicators:
- Specific questions or requests related to services
- Personal details and context
- Professional inquiries with clear intent
- Proper use of form fields

Be strict with obvious spam but careful not to flag legitimate business inquiries.
Score 70+ for likely spam, 90+ for definite spam.`

const testPrompt = "Test connection"

// BuildPrompt renders the submission as "key: value" lines in key order.
func BuildPrompt(sub submission.Submission) string {
	lines := make([]string, 0, len(sub))
	for _, k := range sub.Keys() {
		lines = append(lines, fmt.Sprintf("%s: %s", k, submission.ValueString(sub[k])))
	}
	return "Analyze the following form submission for spam. Consider patterns, suspicious content, and typical spam indicators.\n\nForm data:\n" +
		strings.Join(lines, "\n")
}
