package notifier

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"

	"TaseTracker/internal/model"
	"TaseTracker/internal/portfolio"

	"github.com/dustin/go-humanize"
)

// FormatAlert renders the notification for a fired alert.
func FormatAlert(t model.AlertTrigger) (subject, body string) {
	verb := "rose to"
	if t.Alert.Condition == model.ConditionBelow {
		verb = "fell to"
	}
	subject = fmt.Sprintf("Price alert: %s %s %s", t.Alert.Symbol, verb, formatPrice(t.Price, t.Info.Currency))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s</b> (%s)\n\n", esc(t.Alert.Symbol), esc(t.Info.Exchange)))
	b.WriteString(fmt.Sprintf("Price: %s\n", formatPrice(t.Price, t.Info.Currency)))
	b.WriteString(fmt.Sprintf("Condition: %s %s\n", t.Alert.Condition, formatPrice(t.Alert.Threshold, t.Info.Currency)))
	if t.Alert.OneShot() {
		b.WriteString("This alert has been removed.\n")
	} else {
		b.WriteString("This alert stays active.\n")
	}
	b.WriteString(fmt.Sprintf("Time: %s\n", t.Time.Format("2006-01-02 15:04:05 MST")))
	return subject, b.String()
}

// FormatFired lists alerts that fired while a command was being served.
func FormatFired(triggers []model.AlertTrigger) string {
	var b strings.Builder
	for i, t := range triggers {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("🔔 <b>%s</b> %s %s (now %s)", esc(t.Alert.Symbol), t.Alert.Condition,
			formatPrice(t.Alert.Threshold, t.Info.Currency), formatPrice(t.Price, t.Info.Currency)))
		if t.Alert.OneShot() {
			b.WriteString(", removed")
		}
	}
	return b.String()
}

// FormatDeliveryWarning renders the non-fatal warning shown when alert
// notifications did not reach every channel.
func FormatDeliveryWarning(errs []error) string {
	var b strings.Builder
	b.WriteString("⚠️ <b>Alert notification not fully delivered</b>")
	for _, err := range errs {
		b.WriteString("\n• " + esc(err.Error()))
	}
	return b.String()
}

// Clock is a labelled wall-clock reading for the status banner.
type Clock struct {
	Label string
	Time  time.Time
}

// FormatStatus renders the market status banner.
func FormatStatus(exchange string, st model.SessionStatus, clocks []Clock) string {
	var b strings.Builder
	if st.Open() {
		b.WriteString(fmt.Sprintf("🟢 <b>%s is OPEN</b>\n", esc(exchange)))
	} else {
		b.WriteString(fmt.Sprintf("🔴 <b>%s is CLOSED</b>", esc(exchange)))
		switch st.Reason {
		case model.ReasonWeekend:
			b.WriteString(" (weekend)")
		case model.ReasonHoliday:
			b.WriteString(" (holiday)")
		case model.ReasonOutsideHours:
			b.WriteString(" (outside trading hours)")
		}
		b.WriteString("\n")
	}
	if st.HolidayDataMissing {
		b.WriteString("⚠️ No holiday data for this year, weekday and hour rules only\n")
	}
	b.WriteString("\n")
	for _, c := range clocks {
		b.WriteString(fmt.Sprintf("%s: %s\n", c.Label, c.Time.Format("Mon 15:04 MST")))
	}
	return b.String()
}

// FormatQuote renders the headline figures of one symbol.
func FormatQuote(info model.SymbolInfo, st *model.QuoteStats) string {
	cur := info.Currency
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", esc(info.Symbol), esc(info.Exchange)))
	b.WriteString(fmt.Sprintf("Price: %s (%+.2f%%)\n", formatPrice(st.CurrentPrice, cur), st.ChangePct))
	b.WriteString(fmt.Sprintf("Previous close: %s\n", formatPrice(st.PreviousClose, cur)))
	b.WriteString(fmt.Sprintf("Day range: %s - %s\n", formatPrice(st.DayLow, cur), formatPrice(st.DayHigh, cur)))
	b.WriteString(fmt.Sprintf("Volume: %s\n", formatVolume(st.Volume)))
	b.WriteString(fmt.Sprintf("MA20: %s | MA50: %s\n\n", formatPrice(st.MA20, cur), formatPrice(st.MA50, cur)))

	b.WriteString("<b>Statistics</b>\n")
	b.WriteString(fmt.Sprintf("  Mean: %s\n", formatPrice(st.Mean, cur)))
	b.WriteString(fmt.Sprintf("  Std dev: %s\n", formatPrice(st.StdDev, cur)))
	b.WriteString(fmt.Sprintf("  Min/Max: %s / %s\n", formatPrice(st.Min, cur), formatPrice(st.Max, cur)))
	if st.HasVariation {
		b.WriteString(fmt.Sprintf("  Total variation: %+.2f%%\n", st.VariationPct))
	} else {
		b.WriteString("  Total variation: N/A\n")
	}
	return b.String()
}

// FormatAlerts lists the standing alerts of a session.
func FormatAlerts(alerts []model.Alert, now time.Time) string {
	if len(alerts) == 0 {
		return "No active alerts."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>Active alerts</b> (%d)\n\n", len(alerts)))
	for _, a := range alerts {
		kind := "persistent"
		if a.OneShot() {
			kind = "once"
		}
		b.WriteString(fmt.Sprintf("<code>%s</code>\n  %s %s %s, %s, set %s\n",
			a.ID, esc(a.Symbol), a.Condition, humanize.CommafWithDigits(a.Threshold, 2), kind,
			humanize.RelTime(a.CreatedAt, now, "ago", "from now")))
	}
	return b.String()
}

// FormatPortfolio renders a valuation snapshot.
func FormatPortfolio(snap portfolio.Snapshot) string {
	if len(snap.Holdings) == 0 {
		return "Portfolio is empty."
	}
	var b strings.Builder
	b.WriteString("💼 <b>Portfolio</b>\n\n")
	for _, h := range snap.Holdings {
		if h.Unpriced {
			b.WriteString(fmt.Sprintf("%s: %s shares, price unavailable\n", esc(h.Info.Symbol), h.Shares.String()))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s shares @ %s\n  value %s, P/L %s (%s%%)\n",
			esc(h.Info.Symbol), h.Shares.String(), formatPrice(h.Price, h.Info.Currency),
			h.MarketValue, h.Profit, h.ProfitPct.StringFixed(2)))
		if len(h.Lots) > 1 {
			for i, lot := range h.Lots {
				b.WriteString(fmt.Sprintf("    lot %d: %v @ %s, P/L %s (%s%%)\n",
					i+1, lot.Position.Shares, formatPrice(lot.Position.BuyPrice, h.Info.Currency),
					lot.Profit, lot.ProfitPct.StringFixed(2)))
			}
		}
	}

	b.WriteString("\n<b>By currency</b>\n")
	for _, cur := range sortedKeys(snap.Buckets) {
		t := snap.Buckets[cur]
		b.WriteString(fmt.Sprintf("  %s: cost %s, value %s, P/L %s (%s%%)\n",
			cur, t.Cost, t.MarketValue, t.Profit, t.ProfitPct.StringFixed(2)))
	}
	b.WriteString(fmt.Sprintf("\n<b>Total (%s)</b>: value %s, P/L %s (%s%%)\n",
		snap.ReportingCurrency, snap.Total.MarketValue, snap.Total.Profit, snap.Total.ProfitPct.StringFixed(2)))
	b.WriteString(fmt.Sprintf("FX rate: %s\n", snap.Rate.String()))
	if len(snap.Unpriced) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ Excluded (no quote): %s\n", esc(strings.Join(snap.Unpriced, ", "))))
	}
	return b.String()
}

// FormatForecast renders a trend projection.
func FormatForecast(info model.SymbolInfo, fc *model.Forecast) string {
	cur := info.Currency
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔮 <b>%s forecast</b> | degree %d, %d days\n\n", esc(info.Symbol), fc.Degree, len(fc.Points)))
	for _, p := range fc.Points {
		b.WriteString(fmt.Sprintf("%s: %s (%+.2f%%) [%s - %s]\n",
			p.Date.Format("2006-01-02"), formatPrice(p.Price, cur), p.ChangePct,
			formatPrice(p.Lower, cur), formatPrice(p.Upper, cur)))
	}
	b.WriteString(fmt.Sprintf("\nRMSE %s | MAE %s | R² %.3f\n", formatPrice(fc.RMSE, cur), formatPrice(fc.MAE, cur), fc.R2))
	b.WriteString(fmt.Sprintf("Trend: %s\n", trendLabel(fc.Trend)))
	b.WriteString("\nStatistical projection only, not investment advice.")
	return b.String()
}

// WatchRow is one line of the watchlist table.
type WatchRow struct {
	Info      model.SymbolInfo
	Price     float64
	ChangePct float64
	Err       error
}

// FormatWatchlist renders a compact price table.
func FormatWatchlist(rows []WatchRow) string {
	var b strings.Builder
	b.WriteString("👀 <b>Watchlist</b>\n\n<pre>")
	for _, r := range rows {
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("%-9s %14s\n", esc(r.Info.Symbol), "n/a"))
			continue
		}
		b.WriteString(fmt.Sprintf("%-9s %14s %+7.2f%%\n", esc(r.Info.Symbol), formatPrice(r.Price, r.Info.Currency), r.ChangePct))
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return strings.Join([]string{
		"<b>Commands</b>",
		"/status - market status",
		"/quote SYM - latest quote and statistics",
		"/alert SYM above|below PRICE [once] - add an alert",
		"/alerts - list alerts",
		"/delalert ID - remove an alert",
		"/buy SYM SHARES PRICE - add a lot to the virtual portfolio",
		"/portfolio - value the portfolio",
		"/reset - clear the portfolio",
		"/forecast SYM [DAYS] [DEGREE] - polynomial trend projection",
		"/export SYM - CSV and JSON history",
		"/watchlist - default symbols",
		"/refresh [on|off] - refresh now, or toggle auto refresh",
	}, "\n")
}

func trendLabel(t model.Trend) string {
	switch t {
	case model.TrendStrongUp:
		return "strong upward 🚀"
	case model.TrendUp:
		return "slight upward 📈"
	case model.TrendStrongDown:
		return "strong downward 🔻"
	case model.TrendDown:
		return "slight downward 📉"
	default:
		return "stable ⏸️"
	}
}

func formatPrice(price float64, currency string) string {
	return model.M(price, currency).String()
}

func formatVolume(v float64) string {
	if v < 1000 {
		return humanize.Comma(int64(v))
	}
	return humanize.SIWithDigits(v, 1, "")
}

func sortedKeys(m map[string]portfolio.Totals) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML turns a Telegram HTML message into plain text.
func stripHTML(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

func esc(s string) string { return html.EscapeString(s) }
