package projects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCode(t *testing.T) {
	for _, c := range []string{"GF-001", "VCS_1234.v2", "7"} {
		assert.True(t, ValidCode(c), c)
	}
	for _, c := range []string{"", "VCS 1234", "Not specified", "-GF", "GF/001", strings.Repeat("x", 65)} {
		assert.False(t, ValidCode(c), c)
	}
}

func TestCompositeAnalysisResult_ValidateCode(t *testing.T) {
	res := CompositeAnalysisResult{Project: &ProjectInfo{ProjectCode: "Not specified"}, Summary: &Summary{}}
	assert.ErrorIs(t, res.Validate(), ErrInvalidInput)

	res.Project.ProjectCode = "GF-001"
	assert.NoError(t, res.Validate())
}
