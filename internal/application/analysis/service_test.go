package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/carbon-validator/internal/application"
	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
	"github.com/bryanwahyu/carbon-validator/internal/domain/documents"
	"github.com/bryanwahyu/carbon-validator/internal/domain/projects"
	"github.com/bryanwahyu/carbon-validator/internal/infra/db/memory"
)

const greenForestDoc = "Project Green Forest, code GF-001, located in Kenya, methodology REDD+, started 2020-01-01"

const infoReply = `<project_info>
  <project_code>GF-001</project_code>
  <name>Project Green Forest</name>
  <description>Forest conservation.</description>
  <location>Kenya</location>
  <coordinates>[-0.02, 37.9]</coordinates>
  <status>Active</status>
  <start_date>2020-01-01</start_date>
  <end_date>ongoing</end_date>
  <methodology>REDD+</methodology>
  <size>Not specified</size>
</project_info>`

const riskReply = `<risk_metrics>
  <risk_category name="Permanence">
    <score>40</score><impact>High</impact><likelihood>Possible</likelihood>
    <description>Fire risk.</description>
  </risk_category>
  <risk_category name="Leakage">
    <score>25</score><impact>Medium</impact><likelihood>Unlikely</likelihood>
    <description>Activity shifting.</description>
  </risk_category>
</risk_metrics>`

const summaryReply = `<summary>
  <overall_summary>Broadly compliant.</overall_summary>
  <recommendations>
    <recommendation><action>Add fire buffer</action><priority>high</priority></recommendation>
  </recommendations>
  <additional_insights>None.</additional_insights>
</summary>`

const summaryGISReply = `<summary>
  <overall_summary>Broadly compliant.</overall_summary>
  <recommendations></recommendations>
  <deforestation_data>
    <data_point><year>2020</year><hectares>150</hectares></data_point>
  </deforestation_data>
  <pie_chart_data>
    <segment><category>Forest</category><value>80</value></segment>
  </pie_chart_data>
</summary>`

// scripted answers by the output block each prompt asks for.
type scripted struct {
	mu      sync.Mutex
	info    string
	risk    string
	summary string
	fail    map[string]error
	order   []string
	prompts []string
}

func newScripted() *scripted {
	return &scripted{info: infoReply, risk: riskReply, summary: summaryReply, fail: map[string]error{}}
}

func (s *scripted) Complete(_ context.Context, p string) (string, error) {
	stage := "question"
	switch {
	case strings.Contains(p, "<project_info>"):
		stage = "info"
	case strings.Contains(p, "<risk_metrics>"):
		stage = "risk"
	case strings.Contains(p, "<summary>"):
		stage = "summary"
	}
	s.mu.Lock()
	s.order = append(s.order, stage)
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()

	if err := s.fail[stage]; err != nil {
		return "", err
	}
	switch stage {
	case "info":
		return s.info, nil
	case "risk":
		return s.risk, nil
	case "summary":
		return s.summary, nil
	}
	return "  The project is in Kenya.\n", nil
}

type countingRepo struct {
	saves  int
	last   projects.CompositeAnalysisResult
	bundle *projects.ProjectBundle
}

func (r *countingRepo) SaveAnalysis(_ context.Context, res projects.CompositeAnalysisResult) (projects.ProjectID, error) {
	r.saves++
	r.last = res
	return "p-1", nil
}

func (r *countingRepo) FindProjectByCode(_ context.Context, code string) (projects.ProjectID, error) {
	if r.bundle == nil || r.bundle.Project.ProjectCode != code {
		return "", projects.ErrNotFound
	}
	return r.bundle.Project.ID, nil
}

func (r *countingRepo) UpsertTimeSeriesPoint(context.Context, projects.ProjectID, projects.TimeSeriesPoint) error {
	return nil
}

func (r *countingRepo) UpsertPieChartSegment(context.Context, projects.ProjectID, projects.PieChartSegment) error {
	return nil
}

func (r *countingRepo) ListProjects(context.Context) ([]projects.Project, error) { return nil, nil }

func (r *countingRepo) GetProjectBundle(_ context.Context, id projects.ProjectID) (*projects.ProjectBundle, error) {
	if r.bundle == nil || r.bundle.Project.ID != id {
		return nil, projects.ErrNotFound
	}
	return r.bundle, nil
}

type docSource map[documents.Handle]string

func (d docSource) Text(_ context.Context, h documents.Handle) (string, error) {
	if t, ok := d[h]; ok {
		return t, nil
	}
	return "", documents.ErrNotFound
}

func TestRunAnalysis_GreenForest(t *testing.T) {
	c := newScripted()
	repo := &countingRepo{}
	svc := &Service{Completer: c, Repo: repo}

	res, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{
		DocumentText: greenForestDoc,
		PolicyText:   "VCS standard",
	})
	require.NoError(t, err)

	assert.Equal(t, projects.ProjectID("p-1"), res.ProjectID)
	assert.Equal(t, "GF-001", res.Project.ProjectCode)
	assert.Equal(t, "Project Green Forest", res.Project.Name)
	assert.Equal(t, "Kenya", res.Project.Location)
	assert.Equal(t, "REDD+", res.Project.Methodology)
	assert.Equal(t, "2020-01-01", res.Project.StartDate)
	assert.Empty(t, res.Project.EndDate)

	require.Len(t, res.Risks, 2)
	assert.Equal(t, "Permanence", res.Risks[0].Category)
	assert.Equal(t, "Leakage", res.Risks[1].Category)
	assert.Equal(t, "Broadly compliant.", res.Summary.OverallSummary)
	require.Len(t, res.Summary.Recommendations, 1)

	assert.Equal(t, 1, repo.saves)
	require.NotNil(t, repo.last.Project)
	assert.Equal(t, "GF-001", repo.last.Project.ProjectCode)
	assert.Equal(t, []string{"info", "risk", "summary"}, c.order)

	for _, p := range c.prompts {
		assert.Contains(t, p, greenForestDoc)
	}
	assert.NotContains(t, c.prompts[0], "VCS standard")
	assert.Contains(t, c.prompts[1], "VCS standard")
}

func TestRunAnalysis_StageFailureSkipsPersistence(t *testing.T) {
	cases := map[string]struct {
		setup func(*scripted)
		stage string
		kind  error
	}{
		"basic info upstream": {
			setup: func(s *scripted) { s.fail["info"] = ai.Upstream("boom", nil) },
			stage: "basic_info", kind: ai.ErrUpstream,
		},
		"design risk malformed": {
			setup: func(s *scripted) { s.risk = "I cannot assess risks." },
			stage: "design_risk", kind: ai.ErrMalformedResponse,
		},
		"policy missing field": {
			setup: func(s *scripted) { s.summary = "<summary><recommendations/></summary>" },
			stage: "policy", kind: ai.ErrMissingField,
		},
		"plain error becomes upstream": {
			setup: func(s *scripted) { s.fail["risk"] = errors.New("connection reset") },
			stage: "design_risk", kind: ai.ErrUpstream,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newScripted()
			tc.setup(c)
			repo := &countingRepo{}
			svc := &Service{Completer: c, Repo: repo}

			_, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: greenForestDoc})
			require.ErrorIs(t, err, tc.kind)
			var e *ai.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.stage, e.Stage)
			assert.Zero(t, repo.saves)
		})
	}
}

func TestRunAnalysis_UnusableCodeStoresNothing(t *testing.T) {
	repo := memory.New(application.SystemClock{})
	cases := []struct {
		code string
		kind error
	}{
		{"Not specified", ai.ErrMissingField},
		{"N/A", ai.ErrMissingField},
		{"VCS 1234", ai.ErrTypeCoercion},
	}
	for _, tc := range cases {
		c := newScripted()
		c.info = strings.Replace(infoReply, "GF-001", tc.code, 1)
		svc := &Service{Completer: c, Repo: repo}

		_, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: greenForestDoc})
		require.ErrorIs(t, err, tc.kind, tc.code)
		var e *ai.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "basic_info", e.Stage)
		assert.Equal(t, "project_info/project_code", e.Field)
	}

	list, err := repo.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunAnalysis_StopsAtFirstFailure(t *testing.T) {
	c := newScripted()
	c.risk = "no xml here"
	svc := &Service{Completer: c, Repo: &countingRepo{}}

	_, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: greenForestDoc})
	require.Error(t, err)
	assert.Equal(t, []string{"info", "risk"}, c.order)
}

func TestRunAnalysis_Concurrent(t *testing.T) {
	c := newScripted()
	repo := &countingRepo{}
	svc := &Service{Completer: c, Repo: repo, Concurrent: true}

	res, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: greenForestDoc})
	require.NoError(t, err)
	assert.Equal(t, "GF-001", res.Project.ProjectCode)
	assert.Len(t, res.Risks, 2)
	assert.Equal(t, 1, repo.saves)
	assert.ElementsMatch(t, []string{"info", "risk", "summary"}, c.order)
}

func TestRunAnalysis_ConcurrentErrorIsFirstInOrder(t *testing.T) {
	c := newScripted()
	c.fail["info"] = ai.Upstream("down", nil)
	c.summary = "garbage"
	repo := &countingRepo{}
	svc := &Service{Completer: c, Repo: repo, Concurrent: true}

	for i := 0; i < 5; i++ {
		_, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: greenForestDoc})
		var e *ai.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "basic_info", e.Stage)
		assert.Equal(t, ai.KindUpstream, e.Kind)
	}
	assert.Zero(t, repo.saves)
}

func TestRunAnalysis_GISAware(t *testing.T) {
	c := newScripted()
	c.summary = summaryGISReply
	repo := &countingRepo{}
	svc := &Service{Completer: c, Repo: repo, GISAware: true}

	res, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: greenForestDoc})
	require.NoError(t, err)
	assert.Equal(t, []projects.TimeSeriesPoint{{Type: projects.SeriesDeforestation, Year: 2020, Value: 150}}, res.TimeSeries)
	assert.Equal(t, []projects.PieChartSegment{{Category: "Forest", Value: 80}}, res.PieChart)
	assert.Equal(t, res.TimeSeries, repo.last.TimeSeries)
	assert.Empty(t, res.Summary.Recommendations)
}

func TestRunAnalysis_DocumentHandles(t *testing.T) {
	c := newScripted()
	repo := &countingRepo{}
	src := docSource{"documents/1/pdd.txt": greenForestDoc, "policies/2/vcs.txt": "VCS rules", "policies/3/ccb.txt": "CCB rules"}
	svc := &Service{Completer: c, Repo: repo, Documents: src}

	_, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{
		DocumentHandle: "documents/1/pdd.txt",
		PolicyText:     "inline policy",
		PolicyHandles:  []documents.Handle{"policies/2/vcs.txt", "policies/3/ccb.txt"},
	})
	require.NoError(t, err)
	require.Len(t, c.prompts, 3)
	assert.Contains(t, c.prompts[1], greenForestDoc)
	assert.Contains(t, c.prompts[1], "inline policy\n\nVCS rules\n\nCCB rules")

	_, err = svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentHandle: "documents/missing"})
	assert.ErrorIs(t, err, documents.ErrNotFound)
	assert.Equal(t, 1, repo.saves)
}

func TestRunAnalysis_RequiresDocument(t *testing.T) {
	c := newScripted()
	repo := &countingRepo{}
	svc := &Service{Completer: c, Repo: repo}

	_, err := svc.RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: "   "})
	assert.ErrorIs(t, err, projects.ErrInvalidInput)
	assert.Empty(t, c.order)

	_, err = (&Service{Repo: repo}).RunAnalysis(context.Background(), AnalyzeCommand{DocumentText: "doc"})
	assert.ErrorIs(t, err, ai.ErrConfiguration)
	assert.Zero(t, repo.saves)
}

func TestAsk(t *testing.T) {
	c := newScripted()
	repo := &countingRepo{bundle: &projects.ProjectBundle{
		Project: projects.Project{ID: "p-1", ProjectInfo: projects.ProjectInfo{ProjectCode: "GF-001", Name: "Project Green Forest", Location: "Kenya"}},
		Summary: &projects.Summary{OverallSummary: "Broadly compliant."},
		Risks:   []projects.RiskMetric{{Category: "Permanence", Score: 40, Impact: projects.ImpactHigh, Likelihood: projects.LikelihoodPossible}},
	}}
	svc := &Service{Completer: c, Repo: repo}

	out, err := svc.Ask(context.Background(), "GF-001", "Where is it?")
	require.NoError(t, err)
	assert.Equal(t, "The project is in Kenya.", out)
	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "Project: Project Green Forest (GF-001)")
	assert.Contains(t, c.prompts[0], "Permanence: score 40")
	assert.Contains(t, c.prompts[0], "Where is it?")

	_, err = svc.Ask(context.Background(), "XX-404", "Where?")
	assert.ErrorIs(t, err, projects.ErrNotFound)

	_, err = svc.Ask(context.Background(), "GF-001", " ")
	assert.ErrorIs(t, err, projects.ErrInvalidInput)
}
