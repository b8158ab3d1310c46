package analysis

import (
	"context"

	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/infra/ai/prompt"
	"github.com/bryanwahyu/carbon-validator/internal/infra/ai/xmlresp"
)

// Input is the text every stage works from. Stages do not see each other's output.
type Input struct {
	Document       string
	PolicyText     string
	RegionalPolicy string
}

// BasicInfoStage extracts ProjectInfo.
type BasicInfoStage struct {
	Completer ai.Completer
}

func (s BasicInfoStage) Run(ctx context.Context, in Input) (projects.ProjectInfo, error) {
	raw, err := complete(ctx, s.Completer, prompt.Build(prompt.StageBasicInfo, in.Document))
	if err != nil {
		return projects.ProjectInfo{}, ai.WithStage(string(prompt.StageBasicInfo), err)
	}
	info, err := xmlresp.DecodeProjectInfo(raw)
	if err != nil {
		return projects.ProjectInfo{}, ai.WithStage(string(prompt.StageBasicInfo), err)
	}
	return info, nil
}

// DesignRiskStage extracts the ordered risk metrics. The policy text is passed as
// reference material.
type DesignRiskStage struct {
	Completer ai.Completer
}

func (s DesignRiskStage) Run(ctx context.Context, in Input) ([]projects.RiskMetric, error) {
	p := prompt.Build(prompt.StageDesignRisk, in.Document,
		prompt.Aux{Label: prompt.LabelPolicyReference, Text: in.PolicyText},
	)
	raw, err := complete(ctx, s.Completer, p)
	if err != nil {
		return nil, ai.WithStage(string(prompt.StageDesignRisk), err)
	}
	risks, err := xmlresp.DecodeRiskMetrics(raw)
	if err != nil {
		return nil, ai.WithStage(string(prompt.StageDesignRisk), err)
	}
	return risks, nil
}

// PolicyStage produces the summary with recommendations. With GIS set it uses the
// GIS-aware prompt and also decodes the optional series blocks.
type PolicyStage struct {
	Completer ai.Completer
	GIS       bool
}

func (s PolicyStage) stage() prompt.Stage {
	if s.GIS {
		return prompt.StagePolicyGIS
	}
	return prompt.StagePolicy
}

func (s PolicyStage) Run(ctx context.Context, in Input) (xmlresp.PolicyResult, error) {
	st := s.stage()
	p := prompt.Build(st, in.Document,
		prompt.Aux{Label: prompt.LabelPolicyReference, Text: in.PolicyText},
		prompt.Aux{Label: prompt.LabelRegionalPolicies, Text: in.RegionalPolicy},
	)
	raw, err := complete(ctx, s.Completer, p)
	if err != nil {
		return xmlresp.PolicyResult{}, ai.WithStage(string(st), err)
	}
	res, err := xmlresp.DecodeSummary(raw, s.GIS)
	if err != nil {
		return xmlresp.PolicyResult{}, ai.WithStage(string(st), err)
	}
	return res, nil
}

func complete(ctx context.Context, c ai.Completer, p string) (string, error) {
	if c == nil {
		return "", ai.Configuration("completion client is not configured")
	}
	return c.Complete(ctx, p)
}
