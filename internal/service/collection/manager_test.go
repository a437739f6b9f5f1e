package collection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/repo/memory"
)

// fakeCollector 返回预置记录的采集器
type fakeCollector struct {
	name    string
	mu      sync.Mutex
	records []colModel.RawRecord
	err     error
	delay   time.Duration
	calls   int

	inflight    *int32
	maxInflight *int32
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Execute(ctx context.Context, src *colModel.Source) (*colModel.CollectionResult, error) {
	f.mu.Lock()
	f.calls++
	records := f.records
	f.mu.Unlock()

	if f.inflight != nil {
		n := atomic.AddInt32(f.inflight, 1)
		defer atomic.AddInt32(f.inflight, -1)
		for {
			cur := atomic.LoadInt32(f.maxInflight)
			if n <= cur || atomic.CompareAndSwapInt32(f.maxInflight, cur, n) {
				break
			}
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}

	data := make([]colModel.RawRecord, 0, len(records))
	for _, r := range records {
		cp := colModel.RawRecord{}
		for k, v := range r {
			cp[k] = v
		}
		data = append(data, cp)
	}
	return &colModel.CollectionResult{
		SourceID: src.ID,
		Success:  true,
		Message:  "collected",
		Data:     data,
		Stats:    colModel.RunStats{Fetched: len(data)},
	}, nil
}

func (f *fakeCollector) setRecords(recs []colModel.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = recs
}

// authCollector 需要认证的采集器
type authCollector struct {
	*fakeCollector
	authErr error
}

func (a *authCollector) Authenticate(ctx context.Context) error { return a.authErr }

type failingGeocoder struct{}

func (failingGeocoder) Geocode(ctx context.Context, address, city, state string) (*colModel.Location, error) {
	return nil, errors.New("geocoder unavailable")
}

func testSource(id, collectorType string) *colModel.Source {
	return &colModel.Source{
		ID:            id,
		Name:          id,
		Kind:          "county-website",
		URL:           "http://" + id + ".test",
		Region:        colModel.Region{State: "MD", County: "St. Mary's"},
		CollectorType: collectorType,
		Schedule:      colModel.Schedule{Frequency: colModel.FrequencyWeekly},
		Status:        colModel.SourceStatusActive,
		Metadata: map[string]interface{}{
			colModel.MetaDefaultLatitude:  38.3,
			colModel.MetaDefaultLongitude: -76.6,
		},
	}
}

func listingRecord(amount string) colModel.RawRecord {
	return colModel.RawRecord{
		colModel.FieldParcelID:        "01-123456",
		colModel.FieldOwnerName:       "DOE JOHN",
		colModel.FieldPropertyAddress: "123 Main St, Town, MD 20650",
		colModel.FieldCounty:          "St. Mary's",
		colModel.FieldState:           "MD",
		colModel.FieldSaleInfo: map[string]interface{}{
			"saleAmount": amount,
		},
	}
}

// flakyPropertyStore 对指定身份键写入失败的存储
type flakyPropertyStore struct {
	*memory.PropertyRepository
	failKey      string // 每次都失败
	transientKey string // 首次瞬时失败
	calls        map[string]int
}

func (s *flakyPropertyStore) Upsert(ctx context.Context, p *colModel.Property) (bool, error) {
	s.calls[p.IdentityKey]++
	switch {
	case p.IdentityKey == s.failKey:
		return false, errors.New("document failed validation")
	case p.IdentityKey == s.transientKey && s.calls[p.IdentityKey] == 1:
		return false, errors.New("dial tcp: connection refused")
	}
	return s.PropertyRepository.Upsert(ctx, p)
}

func parcelRecord(parcelID, amount string) colModel.RawRecord {
	rec := listingRecord(amount)
	rec[colModel.FieldParcelID] = parcelID
	return rec
}

type fixture struct {
	manager    *Manager
	properties *memory.PropertyRepository
	sources    *memory.SourceRepository
	runs       *memory.RunRepository
}

func newFixture(opts Options, sources ...*colModel.Source) *fixture {
	props := memory.NewPropertyRepository()
	srcs := memory.NewSourceRepository(sources...)
	runs := memory.NewRunRepository()
	return &fixture{
		manager:    NewManager(props, srcs, runs, opts),
		properties: props,
		sources:    srcs,
		runs:       runs,
	}
}

func TestManager_RegisterAndGet(t *testing.T) {
	f := newFixture(Options{})
	f.manager.Register("b", &fakeCollector{name: "b"})
	f.manager.Register("a", &fakeCollector{name: "a"})

	assert.Equal(t, []string{"a", "b"}, f.manager.Names())

	c, err := f.manager.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", c.Name())

	_, err = f.manager.Get("missing")
	assert.ErrorIs(t, err, ErrCollectorNotFound)
}

func TestRunCollection_UpsertTwiceKeepsLatest(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCollector{name: "st-marys-md", records: []colModel.RawRecord{
		listingRecord("$1,200.50"),
		{colModel.FieldPropertyAddress: "9 Nowhere Ln", colModel.FieldState: "MD"}, // 缺县
	}}
	f := newFixture(Options{}, testSource("md-st-marys", "st-marys-md"))
	f.manager.Register(fc.name, fc)

	res, err := f.manager.RunCollection(ctx, "st-marys-md")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Created)
	assert.Equal(t, 0, res.Stats.Updated)
	assert.Equal(t, 1, res.Stats.Invalid)
	assert.Equal(t, colModel.RunStatusSuccess, res.Status())
	assert.NotEmpty(t, res.RunID)

	fc.setRecords([]colModel.RawRecord{listingRecord("$1,350.00")})
	res, err = f.manager.RunCollection(ctx, "st-marys-md")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.Created)
	assert.Equal(t, 1, res.Stats.Updated)

	assert.Equal(t, 1, f.properties.Count())
	p, err := f.properties.GetByIdentityKey(ctx, "parcel:01-123456")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1350.0, p.SaleInfo.SaleAmount)
	assert.Equal(t, "md-st-marys", p.SourceID)
	assert.Equal(t, "123 MAIN STREET, TOWN, MD 20650", p.PropertyAddress)

	runs, err := f.runs.ListSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"parcel:01-123456"}, runs[0].PropertyKeys)

	src, err := f.sources.Get(ctx, "md-st-marys")
	require.NoError(t, err)
	assert.Equal(t, colModel.SourceStatusActive, src.Status)
	require.NotNil(t, src.LastCollected)
}

func TestRunCollection_PersistFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	store := &flakyPropertyStore{
		PropertyRepository: memory.NewPropertyRepository(),
		failKey:            "parcel:01-000002",
		transientKey:       "parcel:01-000003",
		calls:              map[string]int{},
	}
	srcs := memory.NewSourceRepository(testSource("md-st-marys", "st-marys-md"))
	runs := memory.NewRunRepository()
	m := NewManager(store, srcs, runs, Options{})
	m.Register("st-marys-md", &fakeCollector{name: "st-marys-md", records: []colModel.RawRecord{
		parcelRecord("01-000001", "$10"),
		parcelRecord("01-000002", "$20"),
		parcelRecord("01-000003", "$30"),
	}})

	res, err := m.RunCollection(ctx, "st-marys-md")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, 2, res.Stats.Saved)
	assert.Equal(t, colModel.RunStatusPartial, res.Status())

	// 兄弟记录照常入库，瞬时失败重试后成功
	assert.Equal(t, 2, store.Count())
	p, err := store.GetByIdentityKey(ctx, "parcel:01-000003")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, store.calls["parcel:01-000003"])
	assert.Equal(t, 1, store.calls["parcel:01-000002"], "non-transient failure is not retried")

	recorded, err := runs.ListSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, colModel.RunStatusPartial, recorded[0].Status)
	require.Len(t, recorded[0].Errors, 1)
	assert.Contains(t, recorded[0].Errors[0].Message, "parcel:01-000002")
	assert.ElementsMatch(t, []string{"parcel:01-000001", "parcel:01-000003"}, recorded[0].PropertyKeys)

	src, err := srcs.Get(ctx, "md-st-marys")
	require.NoError(t, err)
	assert.Equal(t, colModel.SourceStatusWarning, src.Status)
}

func TestRunCollection_CollectorFailureRecorded(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCollector{name: "st-marys-md", err: errors.New("listing returned 503")}
	f := newFixture(Options{}, testSource("md-st-marys", "st-marys-md"))
	f.manager.Register(fc.name, fc)

	res, err := f.manager.RunCollection(ctx, "st-marys-md")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "503")

	src, _ := f.sources.Get(ctx, "md-st-marys")
	assert.Equal(t, colModel.SourceStatusError, src.Status)
	assert.Contains(t, src.Metadata[colModel.MetaLastError], "503")

	runs, _ := f.runs.ListSince(ctx, time.Time{})
	require.Len(t, runs, 1)
	assert.Equal(t, colModel.RunStatusError, runs[0].Status)
	assert.NotEmpty(t, runs[0].Errors)
}

func TestRunCollection_AuthenticationFailure(t *testing.T) {
	ac := &authCollector{fakeCollector: &fakeCollector{name: "secure"}, authErr: errors.New("bad credentials")}
	f := newFixture(Options{}, testSource("secure-src", "secure"))
	f.manager.Register("secure", ac)

	res, err := f.manager.RunCollection(context.Background(), "secure")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, ac.calls)
}

func TestRunCollection_ConfigurationErrors(t *testing.T) {
	f := newFixture(Options{}, testSource("md-st-marys", "st-marys-md"))
	f.manager.Register("orphan", &fakeCollector{name: "orphan"})

	_, err := f.manager.RunCollection(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCollectorNotFound)

	_, err = f.manager.RunCollection(context.Background(), "orphan")
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = f.manager.RunSource(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = f.manager.RunSource(context.Background(), "md-st-marys")
	assert.ErrorIs(t, err, ErrCollectorNotFound)
}

func TestRunCollection_GeocodeFallbackToCountyCentroid(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCollector{name: "st-marys-md", records: []colModel.RawRecord{listingRecord("$10")}}
	f := newFixture(Options{Geocoder: failingGeocoder{}}, testSource("md-st-marys", "st-marys-md"))
	f.manager.Register(fc.name, fc)

	_, err := f.manager.RunCollection(ctx, "st-marys-md")
	require.NoError(t, err)

	p, _ := f.properties.GetByIdentityKey(ctx, "parcel:01-123456")
	require.NotNil(t, p)
	require.NotNil(t, p.Location)
	assert.True(t, p.Location.Approximate)
	assert.Equal(t, 38.3, p.Location.Latitude)
	assert.Equal(t, -76.6, p.Location.Longitude)
}

func TestRunAllCollectors_IsolatesFailures(t *testing.T) {
	good := &fakeCollector{name: "good", records: []colModel.RawRecord{listingRecord("$1")}}
	bad := &fakeCollector{name: "bad", err: errors.New("boom")}
	f := newFixture(Options{}, testSource("good-src", "good"), testSource("bad-src", "bad"))
	f.manager.Register("good", good)
	f.manager.Register("bad", bad)
	f.manager.Register("unbound", &fakeCollector{name: "unbound"})

	results := f.manager.RunAllCollectors(context.Background())
	require.Len(t, results, 3)
	assert.True(t, results["good"].Success)
	assert.False(t, results["bad"].Success)
	assert.False(t, results["unbound"].Success)
}

func TestExecuteParallelCollections_BoundedConcurrency(t *testing.T) {
	var inflight, maxInflight int32
	fc := &fakeCollector{
		name:        "county",
		records:     []colModel.RawRecord{listingRecord("$5")},
		delay:       30 * time.Millisecond,
		inflight:    &inflight,
		maxInflight: &maxInflight,
	}

	var sources []*colModel.Source
	ids := []string{"s1", "s2", "s3", "s4", "s5"}
	for _, id := range ids {
		sources = append(sources, testSource(id, "county"))
	}
	f := newFixture(Options{}, sources...)
	f.manager.Register("county", fc)

	results, err := f.manager.ExecuteParallelCollections(context.Background(), nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, id := range ids {
		require.Contains(t, results, id)
		assert.True(t, results[id].Success, id)
		assert.Equal(t, id, results[id].SourceID)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInflight), int32(2))
	assert.Equal(t, 5, fc.calls)
}

func TestExecuteParallelCollections_PerSourceErrors(t *testing.T) {
	f := newFixture(Options{}, testSource("s1", "county"))
	f.manager.Register("county", &fakeCollector{name: "county"})

	results, err := f.manager.ExecuteParallelCollections(context.Background(), []string{"s1", "ghost"}, 0)
	require.NoError(t, err)
	assert.True(t, results["s1"].Success)
	assert.False(t, results["ghost"].Success)
	assert.Contains(t, results["ghost"].Message, "source not found")
}

func TestExecuteParallelCollections_DuplicateIDsRunOnce(t *testing.T) {
	fc := &fakeCollector{name: "county", records: []colModel.RawRecord{listingRecord("$5")}}
	f := newFixture(Options{}, testSource("s1", "county"), testSource("s2", "county"))
	f.manager.Register("county", fc)

	results, err := f.manager.ExecuteParallelCollections(context.Background(), []string{"s1", "s2", "s1", "s1"}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, fc.calls)

	runs, err := f.runs.ListSince(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	assert.Equal(t, []string{"b", "a", "c"}, uniqueIDs([]string{"b", "a", "b", "c", "a"}))
}

func TestExecuteParallelCollections_CancelledBeforeStart(t *testing.T) {
	f := newFixture(Options{}, testSource("s1", "county"))
	f.manager.Register("county", &fakeCollector{name: "county"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := f.manager.ExecuteParallelCollections(ctx, []string{"s1"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeUnknown},
		{ErrCollectorNotFound, ErrorTypePersistent},
		{context.DeadlineExceeded, ErrorTypeTransient},
		{errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{errors.New("validation failed"), ErrorTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "%v", tt.err)
		assert.Equal(t, tt.want == ErrorTypeTransient, IsTransient(tt.err), "%v", tt.err)
	}
}
