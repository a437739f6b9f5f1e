package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/client"
)

const testBase = "http://geocoder.test"

func newTestGeocoder(t *testing.T) *HTTPGeocoder {
	t.Helper()
	c := client.NewHTTPClient(client.Options{Timeout: time.Second})
	gock.InterceptClient(c.HTTP())
	t.Cleanup(func() {
		gock.RestoreClient(c.HTTP())
		gock.Off()
	})
	return NewHTTPGeocoder(c, testBase+"/")
}

func TestHTTPGeocoder_Found(t *testing.T) {
	g := newTestGeocoder(t)

	gock.New(testBase).
		Get("/search").
		MatchParam("q", "123 MAIN STREET, LEONARDTOWN, MD").
		MatchParam("format", "json").
		Reply(200).
		JSON([]map[string]string{{"lat": "38.2912", "lon": "-76.6358"}})

	loc, err := g.Geocode(context.Background(), "123 MAIN STREET", "LEONARDTOWN", "MD")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, 38.2912, loc.Latitude, 1e-9)
	assert.InDelta(t, -76.6358, loc.Longitude, 1e-9)
	assert.False(t, loc.Approximate)
	assert.True(t, gock.IsDone())
}

func TestHTTPGeocoder_NotFound(t *testing.T) {
	g := newTestGeocoder(t)

	gock.New(testBase).Get("/search").Reply(200).JSON([]map[string]string{})

	loc, err := g.Geocode(context.Background(), "NOWHERE", "", "MD")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestHTTPGeocoder_ServerError(t *testing.T) {
	g := newTestGeocoder(t)

	gock.New(testBase).Get("/search").Reply(503)

	_, err := g.Geocode(context.Background(), "123 MAIN STREET", "", "MD")
	require.Error(t, err)
	var se *client.StatusError
	assert.True(t, errors.As(err, &se))
}

func TestHTTPGeocoder_EmptyQuery(t *testing.T) {
	g := NewHTTPGeocoder(client.NewHTTPClient(client.Options{}), testBase)
	loc, err := g.Geocode(context.Background(), " ", "", "")
	assert.NoError(t, err)
	assert.Nil(t, loc)
}

type countingGeocoder struct {
	calls int
	loc   *collection.Location
}

func (c *countingGeocoder) Geocode(ctx context.Context, address, city, state string) (*collection.Location, error) {
	c.calls++
	return c.loc, nil
}

func TestCachedGeocoder_FallsThroughWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingGeocoder{loc: &collection.Location{Latitude: 38.3, Longitude: -76.6}}
	g := NewCachedGeocoder(inner, rdb, time.Hour)

	for i := 0; i < 2; i++ {
		loc, err := g.Geocode(context.Background(), "123 MAIN STREET", "LEONARDTOWN", "MD")
		require.NoError(t, err)
		assert.Equal(t, inner.loc, loc)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "taxsale:geocode:123 MAIN ST, MD", CacheKey("123 main st", " ", "md"))
}
