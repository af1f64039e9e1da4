package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"TaseTracker/internal/export"
	"TaseTracker/internal/forecast"
	"TaseTracker/internal/model"
	"TaseTracker/internal/notifier"
)

// HandleCommand executes one chat command for chatID and returns the reply.
// Failures are reported in the reply text and never escape.
func (t *Tracker) HandleCommand(ctx context.Context, chatID, text string) notifier.Reply {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return notifier.Reply{}
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]
	s := t.Session(chatID)

	var (
		reply notifier.Reply
		err   error
	)
	switch cmd {
	case "/start", "/help":
		reply.Text = notifier.FormatHelp()
	case "/status":
		reply.Text = t.statusText()
	case "/quote":
		reply.Text, err = t.cmdQuote(ctx, s, args)
	case "/alert":
		reply.Text, err = t.cmdAlert(s, args)
	case "/alerts":
		reply.Text = notifier.FormatAlerts(s.Alerts(), t.now())
	case "/delalert":
		reply.Text, err = t.cmdDeleteAlert(s, args)
	case "/buy":
		reply.Text, err = t.cmdBuy(s, args)
	case "/portfolio":
		reply.Text, err = t.cmdPortfolio(ctx, s)
	case "/reset":
		s.resetBook()
		reply.Text = "Portfolio cleared."
	case "/forecast":
		reply.Text, err = t.cmdForecast(ctx, args)
	case "/export":
		reply, err = t.cmdExport(ctx, s, args)
	case "/watchlist":
		reply.Text = t.cmdWatchlist(ctx, s)
	case "/refresh":
		reply.Text, err = t.cmdRefresh(ctx, s, args)
	default:
		reply.Text = "Unknown command.\n\n" + notifier.FormatHelp()
	}

	if err != nil {
		t.Log.Warn().Err(err).Str("session", chatID).Str("command", cmd).Msg("command failed")
		reply = notifier.Reply{Text: "❌ " + userMessage(err)}
	}
	if pending := s.takeUndelivered(); len(pending) > 0 {
		reply.Text = withNotes(notifier.FormatDeliveryWarning(pending), reply.Text)
	}
	return reply
}

func withNotes(text, notes string) string {
	switch {
	case notes == "":
		return text
	case text == "":
		return notes
	}
	return text + "\n\n" + notes
}

func (t *Tracker) symbolArg(args []string, i int) string {
	if len(args) > i {
		return model.NormalizeSymbol(args[i])
	}
	return model.NormalizeSymbol(t.opts.DefaultSymbol)
}

func (t *Tracker) cmdQuote(ctx context.Context, s *Session, args []string) (string, error) {
	sym := t.symbolArg(args, 0)
	if sym == "" {
		return "", fmt.Errorf("usage: /quote SYM: %w", model.ErrInvalidInput)
	}
	_, stats, err := t.Collector.Collect(ctx, sym, model.Period3mo, model.Interval1d)
	if err != nil {
		t.recordFailures(map[string]error{sym: err})
		return "", err
	}
	notes := t.checkPriced(ctx, s, map[string]float64{sym: stats.CurrentPrice})
	return withNotes(notifier.FormatQuote(t.Markets.Classify(sym), stats), notes), nil
}

func (t *Tracker) cmdAlert(s *Session, args []string) (string, error) {
	if len(args) < 3 {
		return "", fmt.Errorf("usage: /alert SYM above|below PRICE [once]: %w", model.ErrInvalidInput)
	}
	cond, err := model.ParseCondition(args[1])
	if err != nil {
		return "", err
	}
	threshold, err := parsePositive(args[2], "price")
	if err != nil {
		return "", err
	}
	rec := model.RecurrencePersistent
	if len(args) > 3 && strings.EqualFold(args[3], "once") {
		rec = model.RecurrenceOneShot
	}
	a, err := model.NewAlert(args[0], threshold, cond, rec, t.now())
	if err != nil {
		return "", err
	}

	if err := s.addAlert(a); err != nil {
		return "", err
	}
	info := t.Markets.Classify(a.Symbol)
	return fmt.Sprintf("✅ Alert <code>%s</code> set: %s %s %s (%s)",
		a.ID, a.Symbol, a.Condition, model.M(a.Threshold, info.Currency), recurrenceLabel(a)), nil
}

func (t *Tracker) cmdDeleteAlert(s *Session, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: /delalert ID: %w", model.ErrInvalidInput)
	}
	if !s.removeAlert(args[0]) {
		return "", fmt.Errorf("no alert %s: %w", args[0], model.ErrInvalidInput)
	}
	return "🗑 Alert removed.", nil
}

func (t *Tracker) cmdBuy(s *Session, args []string) (string, error) {
	if len(args) != 3 {
		return "", fmt.Errorf("usage: /buy SYM SHARES PRICE: %w", model.ErrInvalidInput)
	}
	shares, err := parsePositive(args[1], "shares")
	if err != nil {
		return "", err
	}
	price, err := parsePositive(args[2], "price")
	if err != nil {
		return "", err
	}
	lot, err := model.NewPosition(args[0], shares, price, t.now())
	if err != nil {
		return "", err
	}

	if err := s.addLot(lot); err != nil {
		return "", err
	}
	info := t.Markets.Classify(lot.Symbol)
	return fmt.Sprintf("✅ Bought %v %s @ %s", lot.Shares, lot.Symbol, model.M(lot.BuyPrice, info.Currency)), nil
}

func (t *Tracker) cmdPortfolio(ctx context.Context, s *Session) (string, error) {
	if s.LotCount() == 0 {
		return "Portfolio is empty.", nil
	}
	snap, prices, err := t.value(ctx, s)
	if err != nil {
		return "", err
	}
	return withNotes(notifier.FormatPortfolio(snap), t.checkPriced(ctx, s, prices)), nil
}

func (t *Tracker) cmdForecast(ctx context.Context, args []string) (string, error) {
	sym := t.symbolArg(args, 0)
	opts := forecast.DefaultOptions()
	var err error
	if len(args) > 1 {
		if opts.Days, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("days %q: %w", args[1], model.ErrInvalidInput)
		}
	}
	if len(args) > 2 {
		if opts.Degree, err = strconv.Atoi(args[2]); err != nil {
			return "", fmt.Errorf("degree %q: %w", args[2], model.ErrInvalidInput)
		}
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}

	series, err := t.Collector.Fetcher.Fetch(ctx, sym, model.Period6mo, model.Interval1d)
	if err != nil {
		t.recordFailures(map[string]error{sym: err})
		return "", err
	}
	fc, err := forecast.Fit(series, opts)
	if err != nil {
		return "", err
	}
	return notifier.FormatForecast(t.Markets.Classify(sym), fc), nil
}

func (t *Tracker) cmdExport(ctx context.Context, s *Session, args []string) (notifier.Reply, error) {
	sym := t.symbolArg(args, 0)
	series, stats, err := t.Collector.Collect(ctx, sym, model.Period1mo, model.Interval1d)
	if err != nil {
		t.recordFailures(map[string]error{sym: err})
		return notifier.Reply{}, err
	}
	now := t.now().In(t.opts.UserLocation)

	var csvBuf bytes.Buffer
	if err := export.WriteCSV(&csvBuf, series); err != nil {
		return notifier.Reply{}, err
	}
	var jsonBuf bytes.Buffer
	doc := export.NewDocument(t.Markets.Classify(sym), series, stats, now, t.opts.UserLocation)
	if err := export.WriteJSON(&jsonBuf, doc); err != nil {
		return notifier.Reply{}, err
	}
	return notifier.Reply{
		Text: withNotes(fmt.Sprintf("📤 %s: %d rows", sym, len(series.Bars)),
			t.checkPriced(ctx, s, map[string]float64{sym: stats.CurrentPrice})),
		Attachments: []notifier.Attachment{
			{Name: export.FileName(sym, "csv", now), Data: csvBuf.Bytes()},
			{Name: export.FileName(sym, "json", now), Data: jsonBuf.Bytes()},
		},
	}, nil
}

func (t *Tracker) cmdWatchlist(ctx context.Context, s *Session) string {
	rows := make([]notifier.WatchRow, 0, len(t.opts.Watchlist))
	prices := make(map[string]float64, len(t.opts.Watchlist))
	for _, sym := range t.opts.Watchlist {
		row := notifier.WatchRow{Info: t.Markets.Classify(sym)}
		_, stats, err := t.Collector.Collect(ctx, row.Info.Symbol, model.Period5d, model.Interval1d)
		if err != nil {
			t.recordFailures(map[string]error{row.Info.Symbol: err})
			row.Err = err
		} else {
			row.Price, row.ChangePct = stats.CurrentPrice, stats.ChangePct
			prices[row.Info.Symbol] = stats.CurrentPrice
		}
		rows = append(rows, row)
	}
	return withNotes(notifier.FormatWatchlist(rows), t.checkPriced(ctx, s, prices))
}

func (t *Tracker) cmdRefresh(ctx context.Context, s *Session, args []string) (string, error) {
	if len(args) == 0 {
		report, err := t.Refresh(ctx, s)
		if err != nil {
			t.Log.Warn().Err(err).Str("session", s.ID).Msg("refresh incomplete")
		}
		return t.renderReport(report), nil
	}
	if len(args) != 1 {
		return "", fmt.Errorf("usage: /refresh [on|off]: %w", model.ErrInvalidInput)
	}
	switch strings.ToLower(args[0]) {
	case "on":
		s.SetAutoRefresh(true)
		return "🔄 Auto refresh enabled.", nil
	case "off":
		s.SetAutoRefresh(false)
		return "⏸ Auto refresh disabled.", nil
	}
	return "", fmt.Errorf("refresh %q: %w", args[0], model.ErrInvalidInput)
}

func parsePositive(s, what string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !model.PositiveFinite(v) {
		return 0, fmt.Errorf("%s %q must be a positive number: %w", what, s, model.ErrInvalidInput)
	}
	return v, nil
}

func recurrenceLabel(a model.Alert) string {
	if a.OneShot() {
		return "once"
	}
	return "persistent"
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrDataUnavailable):
		return "Market data unavailable, try again later."
	case errors.Is(err, model.ErrInvalidInput):
		return err.Error()
	default:
		return "Something went wrong."
	}
}
