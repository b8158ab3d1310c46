package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/infra/ai/prompt"
	"github.com/bryanwahyu/carbon-validator/internal/infra/ai/xmlresp"
)

// Service runs the three-stage analysis and persists the result.
// Safe for concurrent use; each call owns its result.
type Service struct {
	Completer ai.Completer
	Repo      projects.Repository
	Documents documents.Source // optional, needed only for handles
	Logger    *zap.Logger

	GISAware   bool
	Concurrent bool
}

// AnalyzeCommand carries the document either inline or as a stored handle.
type AnalyzeCommand struct {
	DocumentText       string
	DocumentHandle     documents.Handle
	PolicyText         string
	RegionalPolicyText string
	PolicyHandles      []documents.Handle
}

type AnalyzeResult struct {
	ProjectID  projects.ProjectID         `json:"project_id"`
	Project    projects.ProjectInfo       `json:"project"`
	Summary    projects.Summary           `json:"summary"`
	Risks      []projects.RiskMetric      `json:"risk_metrics"`
	TimeSeries []projects.TimeSeriesPoint `json:"time_series,omitempty"`
	PieChart   []projects.PieChartSegment `json:"pie_chart,omitempty"`
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// RunAnalysis runs basic-info, design-risk and policy in that order. A failing stage
// aborts the run before anything is persisted; a successful run makes exactly one
// SaveAnalysis call.
func (s *Service) RunAnalysis(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	in, err := s.resolve(ctx, cmd)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if s.Repo == nil {
		return AnalyzeResult{}, errors.New("analysis: repository is not configured")
	}

	log := s.logger().With(zap.Int("document_bytes", len(in.Document)), zap.Bool("gis", s.GISAware))
	log.Info("analysis started", zap.Bool("concurrent", s.Concurrent))

	var res projects.CompositeAnalysisResult
	if s.Concurrent {
		res, err = s.runConcurrent(ctx, in)
	} else {
		res, err = s.runSequential(ctx, in)
	}
	if err != nil {
		log.Warn("analysis failed", zap.Error(err), zap.String("kind", ai.KindOf(err).String()))
		return AnalyzeResult{}, err
	}
	if err := res.Validate(); err != nil {
		return AnalyzeResult{}, err
	}

	id, err := s.Repo.SaveAnalysis(ctx, res)
	if err != nil {
		log.Error("save analysis failed", zap.Error(err))
		return AnalyzeResult{}, fmt.Errorf("save analysis: %w", err)
	}
	log.Info("analysis stored",
		zap.String("project_id", string(id)),
		zap.String("project_code", res.Project.ProjectCode),
		zap.Int("risk_metrics", len(res.Risks)),
	)

	return AnalyzeResult{
		ProjectID:  id,
		Project:    *res.Project,
		Summary:    *res.Summary,
		Risks:      res.Risks,
		TimeSeries: res.TimeSeries,
		PieChart:   res.PieChart,
	}, nil
}

func (s *Service) runSequential(ctx context.Context, in Input) (projects.CompositeAnalysisResult, error) {
	var res projects.CompositeAnalysisResult

	info, err := BasicInfoStage{Completer: s.Completer}.Run(ctx, in)
	if err != nil {
		return res, err
	}
	risks, err := DesignRiskStage{Completer: s.Completer}.Run(ctx, in)
	if err != nil {
		return res, err
	}
	pol, err := PolicyStage{Completer: s.Completer, GIS: s.GISAware}.Run(ctx, in)
	if err != nil {
		return res, err
	}
	return assemble(info, risks, pol), nil
}

// runConcurrent runs the stages in parallel. All stages run to completion so the
// reported error is always the first failing stage in the fixed order.
func (s *Service) runConcurrent(ctx context.Context, in Input) (projects.CompositeAnalysisResult, error) {
	var (
		info  projects.ProjectInfo
		risks []projects.RiskMetric
		pol   xmlresp.PolicyResult
		errs  [3]error
		g     errgroup.Group
	)
	g.Go(func() error {
		info, errs[0] = BasicInfoStage{Completer: s.Completer}.Run(ctx, in)
		return nil
	})
	g.Go(func() error {
		risks, errs[1] = DesignRiskStage{Completer: s.Completer}.Run(ctx, in)
		return nil
	})
	g.Go(func() error {
		pol, errs[2] = PolicyStage{Completer: s.Completer, GIS: s.GISAware}.Run(ctx, in)
		return nil
	})
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return projects.CompositeAnalysisResult{}, err
		}
	}
	return assemble(info, risks, pol), nil
}

func assemble(info projects.ProjectInfo, risks []projects.RiskMetric, pol xmlresp.PolicyResult) projects.CompositeAnalysisResult {
	sum := pol.Summary
	return projects.CompositeAnalysisResult{
		Project:    &info,
		Risks:      risks,
		Summary:    &sum,
		TimeSeries: pol.TimeSeries,
		PieChart:   pol.PieChart,
	}
}

// resolve turns the command into stage input, loading stored documents when handles
// are given.
func (s *Service) resolve(ctx context.Context, cmd AnalyzeCommand) (Input, error) {
	in := Input{
		Document:       cmd.DocumentText,
		PolicyText:     cmd.PolicyText,
		RegionalPolicy: cmd.RegionalPolicyText,
	}
	if in.Document == "" && cmd.DocumentHandle != "" {
		txt, err := s.text(ctx, cmd.DocumentHandle)
		if err != nil {
			return Input{}, err
		}
		in.Document = txt
	}
	if strings.TrimSpace(in.Document) == "" {
		return Input{}, fmt.Errorf("%w: document text or handle is required", projects.ErrInvalidInput)
	}

	var parts []string
	if in.PolicyText != "" {
		parts = append(parts, in.PolicyText)
	}
	for _, h := range cmd.PolicyHandles {
		txt, err := s.text(ctx, h)
		if err != nil {
			return Input{}, err
		}
		parts = append(parts, txt)
	}
	in.PolicyText = strings.Join(parts, "\n\n")
	return in, nil
}

func (s *Service) text(ctx context.Context, h documents.Handle) (string, error) {
	if s.Documents == nil {
		return "", fmt.Errorf("%w: document store is not configured", projects.ErrInvalidInput)
	}
	txt, err := s.Documents.Text(ctx, h)
	if err != nil {
		return "", fmt.Errorf("load document %s: %w", h, err)
	}
	return txt, nil
}

// Ask answers a free-text question about a stored project.
func (s *Service) Ask(ctx context.Context, code, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: query is required", projects.ErrInvalidInput)
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: project code is required", projects.ErrInvalidInput)
	}
	id, err := s.Repo.FindProjectByCode(ctx, code)
	if err != nil {
		return "", err
	}
	b, err := s.Repo.GetProjectBundle(ctx, id)
	if err != nil {
		return "", err
	}

	p := prompt.Build(prompt.StageQuestion, RenderBundle(b),
		prompt.Aux{Label: prompt.LabelQuestion, Text: query},
	)
	out, err := complete(ctx, s.Completer, p)
	if err != nil {
		s.logger().Warn("project question failed", zap.String("project_code", code), zap.Error(err))
		return "", ai.WithStage(string(prompt.StageQuestion), err)
	}
	return strings.TrimSpace(out), nil
}
