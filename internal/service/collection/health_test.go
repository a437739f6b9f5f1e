package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

type brokenSourceStore struct{}

func (brokenSourceStore) List(ctx context.Context) ([]*colModel.Source, error) {
	return nil, errors.New("mongo unavailable")
}
func (brokenSourceStore) Get(ctx context.Context, id string) (*colModel.Source, error) {
	return nil, errors.New("mongo unavailable")
}
func (brokenSourceStore) UpdateStatus(ctx context.Context, id string, u colModel.SourceStatusUpdate) error {
	return errors.New("mongo unavailable")
}

func issuesFor(res *colModel.HealthCheckResult, sourceID string) []colModel.HealthIssue {
	var out []colModel.HealthIssue
	for _, is := range res.Issues {
		if is.SourceID == sourceID {
			out = append(out, is)
		}
	}
	return out
}

func TestCheckHealth_AllHealthy(t *testing.T) {
	f := newFixture(Options{}, testSource("md-st-marys", "st-marys-md"))
	f.manager.Register("st-marys-md", &fakeCollector{name: "st-marys-md"})

	res := f.manager.CheckHealth(context.Background(), 0)
	assert.True(t, res.Healthy)
	assert.Equal(t, colModel.HealthStatusHealthy, res.Status)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, res.Sources.Active)
	assert.Equal(t, colModel.CollectorCounts{Total: 1, Active: 1}, res.Collectors)
}

func TestCheckHealth_ErrorSourceDegrades(t *testing.T) {
	broken := testSource("md-calvert", "st-marys-md")
	broken.Status = colModel.SourceStatusError
	broken.Metadata[colModel.MetaLastError] = "listing returned 503"

	f := newFixture(Options{}, testSource("md-st-marys", "st-marys-md"), broken)
	f.manager.Register("st-marys-md", &fakeCollector{name: "st-marys-md"})

	res := f.manager.CheckHealth(context.Background(), 24*time.Hour)
	assert.False(t, res.Healthy)
	assert.Equal(t, colModel.HealthStatusDegraded, res.Status)
	assert.Equal(t, colModel.SourceCounts{Total: 2, Active: 1, Error: 1}, res.Sources)

	issues := issuesFor(res, "md-calvert")
	require.Len(t, issues, 1)
	assert.Equal(t, colModel.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "listing returned 503")
}

func TestCheckHealth_StaleAndUnregistered(t *testing.T) {
	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-10 * 24 * time.Hour)

	stale := testSource("stale", "st-marys-md")
	stale.LastCollected = &old
	manual := testSource("manual", "st-marys-md")
	manual.Schedule.Frequency = colModel.FrequencyManual
	manual.LastCollected = &old
	orphan := testSource("orphan", "unknown-type")

	f := newFixture(Options{Now: func() time.Time { return now }}, stale, manual, orphan)
	f.manager.Register("st-marys-md", &fakeCollector{name: "st-marys-md"})

	res := f.manager.CheckHealth(context.Background(), 0)

	staleIssues := issuesFor(res, "stale")
	require.Len(t, staleIssues, 1)
	assert.Equal(t, colModel.SeverityWarning, staleIssues[0].Severity)
	assert.Contains(t, staleIssues[0].Message, "10 days")

	assert.Empty(t, issuesFor(res, "manual"))

	orphanIssues := issuesFor(res, "orphan")
	require.Len(t, orphanIssues, 1)
	assert.Equal(t, colModel.SeverityError, orphanIssues[0].Severity)
	assert.Equal(t, colModel.HealthStatusDegraded, res.Status)
}

func TestCheckHealth_WarningRatio(t *testing.T) {
	var sources []*colModel.Source
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		sources = append(sources, testSource(id, "county"))
	}
	sources[0].Status = colModel.SourceStatusWarning

	f := newFixture(Options{}, sources...)
	f.manager.Register("county", &fakeCollector{name: "county"})

	// 1/5 = 20%，未超过阈值
	res := f.manager.CheckHealth(context.Background(), 0)
	assert.Equal(t, colModel.HealthStatusHealthy, res.Status)
	assert.Len(t, res.Issues, 1)

	sources[1].Status = colModel.SourceStatusWarning
	f = newFixture(Options{}, sources...)
	f.manager.Register("county", &fakeCollector{name: "county"})
	res = f.manager.CheckHealth(context.Background(), 0)
	assert.Equal(t, colModel.HealthStatusDegraded, res.Status)
}

func TestCheckHealth_AllRecentRunsFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Options{}, testSource("md-st-marys", "st-marys-md"))
	f.manager.Register("st-marys-md", &fakeCollector{name: "st-marys-md", err: errors.New("timeout")})

	_, err := f.manager.RunCollection(ctx, "st-marys-md")
	require.NoError(t, err)

	res := f.manager.CheckHealth(ctx, time.Hour)
	assert.Equal(t, colModel.HealthStatusUnhealthy, res.Status)
	assert.Equal(t, colModel.RecentCollectionCounts{Total: 1, Failed: 1}, res.RecentCollections)

	var critical int
	for _, is := range res.Issues {
		if is.Severity == colModel.SeverityCritical {
			critical++
		}
	}
	assert.Equal(t, 1, critical)
}

func TestCheckHealth_StoreUnreadable(t *testing.T) {
	f := newFixture(Options{})
	m := NewManager(f.properties, brokenSourceStore{}, f.runs, Options{})

	res := m.CheckHealth(context.Background(), 0)
	assert.False(t, res.Healthy)
	assert.Equal(t, colModel.HealthStatusUnhealthy, res.Status)
	require.NotEmpty(t, res.Issues)
	assert.Equal(t, colModel.SeverityCritical, res.Issues[0].Severity)
}
