package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Sections(t *testing.T) {
	doc := "Project Green Forest, code GF-001, located in Kenya"
	out := Build(StageBasicInfo, doc)

	assert.Contains(t, out, "<instructions>")
	assert.Contains(t, out, "<output_format>\n<project_info>")
	assert.Contains(t, out, "Document to analyze:\n"+doc+"\n")
	assert.NotContains(t, out, LabelAdditionalContext)
}

func TestBuild_Deterministic(t *testing.T) {
	for _, s := range []Stage{StageBasicInfo, StageDesignRisk, StagePolicy, StagePolicyGIS, StageQuestion} {
		a := Build(s, "doc", Aux{Label: LabelPolicyReference, Text: "policy"})
		b := Build(s, "doc", Aux{Label: LabelPolicyReference, Text: "policy"})
		require.NotEmpty(t, a, s)
		assert.Equal(t, a, b, s)
	}
}

func TestBuild_DocumentIsVerbatim(t *testing.T) {
	doc := strings.Repeat("line with <xml> & \"quotes\"\n", 5000)
	out := Build(StageDesignRisk, doc, Aux{Label: LabelPolicyReference, Text: "VCS v4"})
	assert.Contains(t, out, doc)
	assert.Contains(t, out, "Reference policy documents:\nVCS v4")
	assert.Contains(t, out, `<risk_category name="Permanence">`)
}

func TestBuild_AuxOrderAndSkip(t *testing.T) {
	out := Build(StagePolicy, "doc",
		Aux{Label: LabelRegionalPolicies, Text: "Kenya Forest Act"},
		Aux{Label: LabelAdditionalContext, Text: "  "},
		Aux{Label: LabelAdditionalContext, Text: "prior run"},
	)
	i := strings.Index(out, LabelRegionalPolicies)
	j := strings.Index(out, LabelAdditionalContext)
	require.True(t, i > 0 && j > i)
	assert.Equal(t, 1, strings.Count(out, LabelAdditionalContext))
}

func TestBuild_GISVariant(t *testing.T) {
	assert.NotContains(t, Build(StagePolicy, "d"), "<deforestation_data>")
	assert.Contains(t, Build(StagePolicyGIS, "d"), "<deforestation_data>")
	assert.NotContains(t, Build(StageQuestion, "d"), "<output_format>")
}

func TestBuild_UnknownStage(t *testing.T) {
	assert.False(t, Known(Stage("nope")))
	assert.Empty(t, Build(Stage("nope"), "doc"))
}
