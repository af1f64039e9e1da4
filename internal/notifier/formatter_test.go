package notifier

import (
	"errors"
	"testing"
	"time"

	"TaseTracker/internal/fx"
	"TaseTracker/internal/model"
	"TaseTracker/internal/portfolio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAlert(t *testing.T) {
	trig := model.AlertTrigger{
		Alert: model.Alert{ID: "a1", Symbol: "TEVA", Threshold: 100,
			Condition: model.ConditionAbove, Recurrence: model.RecurrenceOneShot},
		Info:  model.DefaultMarkets.Classify("TEVA"),
		Price: 101.5,
		Time:  time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC),
	}
	subject, body := FormatAlert(trig)
	assert.Equal(t, "Price alert: TEVA rose to $101.50", subject)
	assert.Contains(t, body, "Condition: above $100.00")
	assert.Contains(t, body, "removed")

	trig.Alert.Condition = model.ConditionBelow
	trig.Alert.Recurrence = model.RecurrencePersistent
	subject, body = FormatAlert(trig)
	assert.Contains(t, subject, "fell to")
	assert.Contains(t, body, "stays active")
}

func TestFormatFiredAndDeliveryWarning(t *testing.T) {
	info := model.DefaultMarkets.Classify("TEVA")
	out := FormatFired([]model.AlertTrigger{
		{Alert: model.Alert{Symbol: "TEVA", Threshold: 100, Condition: model.ConditionAbove,
			Recurrence: model.RecurrenceOneShot}, Info: info, Price: 101},
		{Alert: model.Alert{Symbol: "TEVA", Threshold: 90, Condition: model.ConditionAbove,
			Recurrence: model.RecurrencePersistent}, Info: info, Price: 101},
	})
	assert.Equal(t, "🔔 <b>TEVA</b> above $100.00 (now $101.00), removed\n🔔 <b>TEVA</b> above $90.00 (now $101.00)", out)

	warn := FormatDeliveryWarning([]error{errors.New("smtp: <refused>")})
	assert.Contains(t, warn, "Alert notification not fully delivered")
	assert.Contains(t, warn, "• smtp: &lt;refused&gt;")
}

func TestFormatStatus(t *testing.T) {
	closed := FormatStatus("Tel Aviv (TASE)", model.SessionStatus{
		State: model.SessionClosed, Reason: model.ReasonHoliday, HolidayDataMissing: false,
	}, []Clock{{Label: "Exchange", Time: time.Date(2024, 3, 24, 12, 0, 0, 0, time.UTC)}})
	assert.Contains(t, closed, "CLOSED</b> (holiday)")
	assert.Contains(t, closed, "Exchange: Sun 12:00 UTC")

	open := FormatStatus("TASE", model.SessionStatus{State: model.SessionOpen, HolidayDataMissing: true}, nil)
	assert.Contains(t, open, "OPEN")
	assert.Contains(t, open, "No holiday data")
}

func TestFormatAlerts(t *testing.T) {
	assert.Equal(t, "No active alerts.", FormatAlerts(nil, time.Now()))

	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	out := FormatAlerts([]model.Alert{{
		ID: "id-1", Symbol: "LUMI.TA", Threshold: 1234.5, Condition: model.ConditionBelow,
		Recurrence: model.RecurrenceOneShot, CreatedAt: now.Add(-2 * time.Hour),
	}}, now)
	assert.Contains(t, out, "<code>id-1</code>")
	assert.Contains(t, out, "LUMI.TA below 1,234.5, once")
	assert.Contains(t, out, "2 hours ago")
}

func TestFormatPortfolio(t *testing.T) {
	assert.Equal(t, "Portfolio is empty.", FormatPortfolio(portfolio.Snapshot{}))

	rates, err := fx.NewManager("ILS", "USD", 3.7)
	require.NoError(t, err)
	agg, err := portfolio.NewAggregator(model.DefaultMarkets, rates, "ILS")
	require.NoError(t, err)
	book := portfolio.NewBook()
	p, _ := model.NewPosition("ABC.X", 10, 50, time.Time{})
	require.NoError(t, book.Add(p))
	p, _ = model.NewPosition("GONE.TA", 1, 5, time.Time{})
	require.NoError(t, book.Add(p))

	snap, err := agg.Aggregate(book, map[string]float64{"ABC.X": 60})
	require.NoError(t, err)
	out := FormatPortfolio(snap)
	assert.Contains(t, out, "ABC.X: 10 shares @ $60.00")
	assert.Contains(t, out, "P/L $100.00 (20.00%)")
	assert.Contains(t, out, "GONE.TA: 1 shares, price unavailable")
	assert.Contains(t, out, "Total (ILS)")
	assert.Contains(t, out, "Excluded (no quote): GONE.TA")
}

func TestFormatForecast(t *testing.T) {
	fc := &model.Forecast{
		Degree: 1, R2: 0.95, Trend: model.TrendStrongUp,
		Points: []model.ForecastPoint{{Date: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), Price: 11, Upper: 12, Lower: 10, ChangePct: 10}},
	}
	out := FormatForecast(model.DefaultMarkets.Classify("TEVA"), fc)
	assert.Contains(t, out, "2024-03-13: $11.00 (+10.00%) [$10.00 - $12.00]")
	assert.Contains(t, out, "R² 0.950")
	assert.Contains(t, out, "strong upward")
}

func TestFormatWatchlist(t *testing.T) {
	out := FormatWatchlist([]WatchRow{
		{Info: model.DefaultMarkets.Classify("TEVA"), Price: 12.5, ChangePct: 1.25},
		{Info: model.DefaultMarkets.Classify("ELAL.TA"), Err: model.ErrDataUnavailable},
	})
	assert.Contains(t, out, "TEVA")
	assert.Contains(t, out, "$12.50")
	assert.Contains(t, out, "+1.25%")
	assert.Contains(t, out, "n/a")
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "950", formatVolume(950))
	assert.Equal(t, "1.2 M", formatVolume(1_234_567))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello <world> & co", stripHTML("<b>Hello</b> &lt;world&gt; &amp; co"))
}
