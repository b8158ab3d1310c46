package prompt

import "strings"

// Stage identifies which analysis step a prompt is for.
type Stage string

const (
	StageBasicInfo  Stage = "basic_info"
	StageDesignRisk Stage = "design_risk"
	StagePolicy     Stage = "policy"
	StagePolicyGIS  Stage = "policy_gis"
	StageQuestion   Stage = "question"
)

type template struct {
	intro        string
	instructions string
	format       string // empty for free-text stages
	docLabel     string
}

var templates = map[Stage]template{
	StageBasicInfo:  {basicInfoIntro, basicInfoInstructions, basicInfoFormat, "Document to analyze"},
	StageDesignRisk: {designRiskIntro, designRiskInstructions, designRiskFormat, "Project document"},
	StagePolicy:     {policyIntro, policyInstructions, policyFormat, "Project document"},
	StagePolicyGIS:  {policyIntro, policyGISInstructions, policyGISFormat, "Project document"},
	StageQuestion:   {questionIntro, questionInstructions, "", "Stored project analysis"},
}

// Aux is auxiliary context appended after the document under its own label.
type Aux struct {
	Label string
	Text  string
}

// Well-known auxiliary labels.
const (
	LabelAdditionalContext = "Additional context"
	LabelPolicyReference   = "Reference policy documents"
	LabelRegionalPolicies  = "Country/regional policies"
	LabelQuestion          = "Question"
)

// Known reports whether s has a template.
func Known(s Stage) bool {
	_, ok := templates[s]
	return ok
}

// Build assembles the prompt for stage. The document and auxiliary texts are embedded
// verbatim; auxiliary entries with empty text are skipped. Unknown stages yield "".
func Build(s Stage, document string, aux ...Aux) string {
	t, ok := templates[s]
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(t.intro)
	b.WriteString("\n\n<instructions>\n")
	b.WriteString(t.instructions)
	b.WriteString("\n</instructions>\n")
	if t.format != "" {
		b.WriteString("\n<output_format>\n")
		b.WriteString(t.format)
		b.WriteString("\n</output_format>\n")
	}
	b.WriteString("\n")
	b.WriteString(t.docLabel)
	b.WriteString(":\n")
	b.WriteString(document)
	for _, a := range aux {
		if strings.TrimSpace(a.Text) == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(a.Label)
		b.WriteString(":\n")
		b.WriteString(a.Text)
	}
	b.WriteString("\n")
	return b.String()
}
