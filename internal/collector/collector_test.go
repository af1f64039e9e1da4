package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TaseTracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1728460800,1728374400,1728547200],
"indicators":{"quote":[{"open":[10,9,null],"high":[11,10,null],"low":[9,8,null],
"close":[10.5,9.5,null],"volume":[1000,2000,null]}]}}],"error":null}}`

func newYahooTest(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	loc := time.FixedZone("UTC+2", 2*60*60)
	f := NewYahooFetcher("", loc, 0)
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetcher_ParsesSortsAndSkipsNullBars(t *testing.T) {
	var gotPath, gotQuery string
	f := newYahooTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, chartJSON)
	})

	series, err := f.Fetch(context.Background(), "LUMI.TA", model.Period5d, model.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/LUMI.TA", gotPath)
	assert.Equal(t, "interval=1d&range=5d", gotQuery)

	require.Len(t, series.Bars, 2)
	assert.Equal(t, 9.5, series.Bars[0].Close)
	assert.Equal(t, 10.5, series.Bars[1].Close)
	assert.True(t, series.Bars[0].Time.Before(series.Bars[1].Time))

	_, offset := series.Bars[0].Time.Zone()
	assert.Equal(t, 2*60*60, offset)
}

func TestYahooFetcher_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"api error", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		}},
		{"empty", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
		}},
		{"garbage", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `not json`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newYahooTest(t, tt.handler)
			_, err := f.Fetch(context.Background(), "NOPE.TA", model.Period1d, model.Interval1d)
			assert.True(t, errors.Is(err, model.ErrDataUnavailable), "got %v", err)
		})
	}
}

func TestYahooFetcher_RejectsUnknownInterval(t *testing.T) {
	f := newYahooTest(t, func(w http.ResponseWriter, _ *http.Request) { t.Fatal("should not be called") })
	_, err := f.Fetch(context.Background(), "TEVA", model.Period1d, model.Interval("3m"))
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestRESTFetcher_SendsAuthAndParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "TEVA", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1mo", r.URL.Query().Get("period"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `[{"timestamp":200,"close":2},{"timestamp":100,"close":1}]`)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", time.UTC, 0)
	series, err := f.Fetch(context.Background(), "TEVA", model.Period1mo, model.Interval1h)
	require.NoError(t, err)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, 1.0, series.Bars[0].Close)
}

func TestRESTFetcher_EmptyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "", time.UTC, 0)
	_, err := f.Fetch(context.Background(), "TEVA", model.Period1d, model.Interval1d)
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))
}

func TestCache_HitsWithinTTLAndRefetchesAfter(t *testing.T) {
	mock := &MockFetcher{Prices: map[string]float64{"TEVA": 17}}
	cache := NewCache(mock, 5*time.Minute)
	now := time.Date(2024, 10, 9, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := cache.Fetch(ctx, "TEVA", model.Period1d, model.Interval1d)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, "TEVA", model.Period1d, model.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls)

	// A different interval is a different key.
	_, err = cache.Fetch(ctx, "TEVA", model.Period1d, model.Interval1h)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls)

	now = now.Add(5 * time.Minute)
	_, err = cache.Fetch(ctx, "TEVA", model.Period1d, model.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.Calls)
}

func TestCache_DoesNotStoreFailures(t *testing.T) {
	mock := &MockFetcher{Errors: map[string]error{"BAD": model.ErrDataUnavailable}}
	cache := NewCache(mock, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cache.Fetch(context.Background(), "BAD", model.Period1d, model.Interval1d)
		assert.Error(t, err)
	}
	assert.Equal(t, 2, mock.Calls)
}

func TestCache_InvalidateAndPurge(t *testing.T) {
	mock := &MockFetcher{Prices: map[string]float64{"TEVA": 17, "NICE": 150}}
	cache := NewCache(mock, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = cache.Fetch(ctx, "TEVA", model.Period1d, model.Interval1d)
	_, _ = cache.Fetch(ctx, "NICE", model.Period1d, model.Interval1d)
	cache.Invalidate("TEVA")
	_, _ = cache.Fetch(ctx, "TEVA", model.Period1d, model.Interval1d)
	assert.Equal(t, 3, mock.Calls)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, cache.Purge())
}

func TestCollector_Stats(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.Quote{
		{Time: start, Close: 100, High: 101, Low: 99, Volume: 10},
		{Time: start.AddDate(0, 0, 1), Close: 110, High: 112, Low: 108, Volume: 20},
		{Time: start.AddDate(0, 0, 2), Close: 121, High: 125, Low: 115, Volume: 30},
	}
	col := NewCollector(&MockFetcher{Series: map[string][]model.Quote{"ABC.TA": bars}}, nil)

	_, st, err := col.Collect(context.Background(), "ABC.TA", model.Period5d, model.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 121.0, st.CurrentPrice)
	assert.Equal(t, 110.0, st.PreviousClose)
	assert.InDelta(t, 11.0, st.Change, 1e-9)
	assert.InDelta(t, 10.0, st.ChangePct, 1e-9)
	assert.Equal(t, 125.0, st.DayHigh)
	assert.Equal(t, 115.0, st.DayLow)
	assert.Equal(t, 30.0, st.Volume)
	assert.Equal(t, 121.0, st.MA20) // not enough bars
	assert.InDelta(t, 110.333333, st.Mean, 1e-5)
	assert.Equal(t, 100.0, st.Min)
	assert.Equal(t, 121.0, st.Max)
	assert.True(t, st.HasVariation)
	assert.InDelta(t, 21.0, st.VariationPct, 1e-9)
}

func TestCollector_LastPrices_IsolatesFailures(t *testing.T) {
	mock := &MockFetcher{
		Prices: map[string]float64{"TEVA": 17.25, "LUMI.TA": 31.4},
		Errors: map[string]error{"BROKEN.TA": fmt.Errorf("timeout: %w", model.ErrDataUnavailable)},
	}
	col := NewCollector(mock, nil)

	prices, errs := col.LastPrices(context.Background(), []string{"TEVA", "BROKEN.TA", "LUMI.TA"})
	assert.Equal(t, map[string]float64{"TEVA": 17.25, "LUMI.TA": 31.4}, prices)
	require.Contains(t, errs, "BROKEN.TA")
	assert.True(t, errors.Is(errs["BROKEN.TA"], model.ErrDataUnavailable))
}
