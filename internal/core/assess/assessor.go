package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/llm"
)

// Verdict is the model's second opinion on a candidate pair.
type Verdict struct {
	IsDuplicate bool    `json:"is_duplicate"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"`
}

func (v *Verdict) Validate() error {
	if v.Confidence < 0 || v.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", v.Confidence)
	}
	return nil
}

// Assessor asks a language model whether two case records describe the
// same adverse event. It is advisory only; review decisions stay with the
// human reviewer.
type Assessor struct {
	model llm.LanguageModel
}

func NewAssessor(model llm.LanguageModel) *Assessor {
	return &Assessor{model: model}
}

func (a *Assessor) Assess(ctx context.Context, c1, c2 *model.Case) (*Verdict, error) {
	prompt := fmt.Sprintf(`
<CASE 1>
%s
</CASE 1>

<CASE 2>
%s
</CASE 2>

Instructions:
Decide whether these two adverse-event case reports describe the same event
for the same patient. Return a JSON object with keys "is_duplicate" (bool),
"confidence" (float between 0 and 1) and "reasoning" (short string).

Example JSON:
{"is_duplicate": true, "confidence": 0.92, "reasoning": "same patient initials, identical reaction onset"}
`, serializeCase(c1), serializeCase(c2))

	response, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate assessment: %w", err)
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(extractJSON(response)), &verdict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w\nResponse: %s", err, response)
	}
	if err := verdict.Validate(); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func serializeCase(c *model.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report ID: %s\n", c.SafetyReportID)
	fmt.Fprintf(&b, "Patient: %s (%s)\n", c.PatientInitials, c.PatientSex)
	if c.PatientDOB != nil {
		fmt.Fprintf(&b, "DOB: %s\n", c.PatientDOB.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Country: %s\n", c.Country)
	fmt.Fprintf(&b, "Suspect drug: %s\n", c.SuspectDrug)
	fmt.Fprintf(&b, "Reactions: %s\n", strings.Join(c.Reactions, ", "))
	fmt.Fprintf(&b, "Narrative: %s\n", c.Narrative)
	return b.String()
}

// extractJSON trims anything the model wrapped around the JSON object,
// such as markdown fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
