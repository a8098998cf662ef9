package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"linksnap/internal/cache"
	"linksnap/internal/metrics"
	"linksnap/internal/models"
	"linksnap/pkg/utils"

	"gorm.io/gorm"
)

// Cache TTLs per query shape. Summary views turn over faster than the
// breakdown views the dashboard polls less often.
const (
	summaryTTL   = 30 * time.Second
	breakdownTTL = time.Minute
)

// Analytics answers grouped-count queries over an owner's redirect rows.
// Results are cached per (owner, query shape, params); any new hit drops
// the owner's whole key set.
type Analytics struct {
	db      *gorm.DB
	logger  *slog.Logger
	cache   cache.Store
	metrics metrics.Recorder
}

func NewAnalytics(db *gorm.DB, logger *slog.Logger, store cache.Store, rec metrics.Recorder) *Analytics {
	return &Analytics{
		db:      db,
		logger:  logger,
		cache:   store,
		metrics: rec,
	}
}

type SeriesPoint struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

type BreakdownEntry struct {
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Summary struct {
	TotalLinks     int64   `json:"total_links"`
	ActiveLinks    int64   `json:"active_links"`
	TotalClicks    int64   `json:"total_clicks"`
	PeriodClicks   int64   `json:"period_clicks"`
	PreviousClicks int64   `json:"previous_clicks"`
	GrowthRate     float64 `json:"growth_rate"`
	Direction      string  `json:"direction"`
}

type LinkStats struct {
	LinkID    uint             `json:"link_id"`
	Slug      string           `json:"slug"`
	Title     string           `json:"title,omitempty"`
	TargetURL string           `json:"target_url"`
	Total     int64            `json:"total"`
	Series    []SeriesPoint    `json:"series"`
	Devices   []BreakdownEntry `json:"devices"`
	Browsers  []BreakdownEntry `json:"browsers"`
	Countries []BreakdownEntry `json:"countries"`
	Referrers []BreakdownEntry `json:"referrers"`
}

// ParsePeriod accepts the supported dashboard periods in days. Empty means
// the 30-day default.
func ParsePeriod(raw string) (int, error) {
	if raw == "" {
		return 30, nil
	}
	switch raw {
	case "7", "30", "90", "365":
		days, _ := strconv.Atoi(raw)
		return days, nil
	}
	return 0, invalid("period", "must be one of 7, 30, 90, 365")
}

// Invalidate drops every cached entry for the owner. Called on each new hit;
// coarse by design.
func (a *Analytics) Invalidate(ctx context.Context, userID uint) {
	a.cache.DeleteSet(ctx, ownerKeySet(userID))
}

func (a *Analytics) Summary(ctx context.Context, userID uint, days int, fresh bool) (*Summary, error) {
	key := a.cacheKey(userID, "summary", days)
	if data, ok := a.lookup(ctx, key, fresh); ok {
		var out Summary
		if err := json.Unmarshal(data, &out); err == nil {
			return &out, nil
		}
	}

	now := time.Now()
	period := time.Duration(days) * 24 * time.Hour
	periodStart := now.Add(-period)
	previousStart := now.Add(-2 * period)

	var out Summary
	base := a.db.WithContext(ctx).Model(&models.Link{}).Where("user_id = ?", userID)
	if err := base.Session(&gorm.Session{}).Count(&out.TotalLinks).Error; err != nil {
		return nil, fmt.Errorf("summary links: %w", err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&out.ActiveLinks).Error; err != nil {
		return nil, fmt.Errorf("summary active links: %w", err)
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(hits), 0)").Scan(&out.TotalClicks).Error; err != nil {
		return nil, fmt.Errorf("summary clicks: %w", err)
	}

	var err error
	out.PeriodClicks, err = a.countHits(ctx, userID, periodStart, now)
	if err != nil {
		return nil, err
	}
	out.PreviousClicks, err = a.countHits(ctx, userID, previousStart, periodStart)
	if err != nil {
		return nil, err
	}

	// Growth compares the trailing period against the preceding window of
	// equal length; an empty previous window reports 0, not infinity.
	if out.PreviousClicks > 0 {
		out.GrowthRate = round2(float64(out.PeriodClicks-out.PreviousClicks) / float64(out.PreviousClicks) * 100)
	}
	switch {
	case out.PeriodClicks > out.PreviousClicks:
		out.Direction = "up"
	case out.PeriodClicks < out.PreviousClicks:
		out.Direction = "down"
	default:
		out.Direction = "stable"
	}

	a.store(ctx, userID, key, summaryTTL, out)
	return &out, nil
}

// Series returns zero-filled calendar buckets over the period: hourly for
// 7 days, daily for 30/90, monthly for a year.
func (a *Analytics) Series(ctx context.Context, userID uint, days int, fresh bool) ([]SeriesPoint, error) {
	key := a.cacheKey(userID, "series", days)
	if data, ok := a.lookup(ctx, key, fresh); ok {
		var out []SeriesPoint
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
	}

	out, err := a.seriesFor(ctx, userID, 0, days)
	if err != nil {
		return nil, err
	}

	a.store(ctx, userID, key, summaryTTL, out)
	return out, nil
}

// Breakdown groups the owner's hits over the period by the given dimension:
// "device", "browser", "country" or "referrer".
func (a *Analytics) Breakdown(ctx context.Context, userID uint, kind string, days int, fresh bool) ([]BreakdownEntry, error) {
	switch kind {
	case "device", "browser", "country", "referrer":
	default:
		return nil, invalid("kind", "must be one of device, browser, country, referrer")
	}

	key := a.cacheKey(userID, kind, days)
	if data, ok := a.lookup(ctx, key, fresh); ok {
		var out []BreakdownEntry
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
	}

	out, err := a.breakdownFor(ctx, userID, 0, kind, days)
	if err != nil {
		return nil, err
	}

	a.store(ctx, userID, key, breakdownTTL, out)
	return out, nil
}

// LinkBreakdown restricts analytics to a single link after checking the
// caller owns it; a foreign link reads as not found.
func (a *Analytics) LinkBreakdown(ctx context.Context, userID, linkID uint, days int, fresh bool) (*LinkStats, error) {
	var link models.Link
	err := a.db.WithContext(ctx).Where("id = ? AND user_id = ?", linkID, userID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("link stats: %w", err)
	}

	key := a.cacheKey(userID, "link", linkID, days)
	if data, ok := a.lookup(ctx, key, fresh); ok {
		var out LinkStats
		if err := json.Unmarshal(data, &out); err == nil {
			return &out, nil
		}
	}

	out := LinkStats{
		LinkID:    link.ID,
		Slug:      link.Slug,
		Title:     link.Title,
		TargetURL: link.TargetURL,
	}

	since := periodStart(time.Now(), days)
	err = a.db.WithContext(ctx).Model(&models.Redirect{}).
		Where("link_id = ? AND created_at >= ?", linkID, since).
		Count(&out.Total).Error
	if err != nil {
		return nil, fmt.Errorf("link stats total: %w", err)
	}

	if out.Series, err = a.seriesFor(ctx, userID, linkID, days); err != nil {
		return nil, err
	}
	if out.Devices, err = a.breakdownFor(ctx, userID, linkID, "device", days); err != nil {
		return nil, err
	}
	if out.Browsers, err = a.breakdownFor(ctx, userID, linkID, "browser", days); err != nil {
		return nil, err
	}
	if out.Countries, err = a.breakdownFor(ctx, userID, linkID, "country", days); err != nil {
		return nil, err
	}
	if out.Referrers, err = a.breakdownFor(ctx, userID, linkID, "referrer", days); err != nil {
		return nil, err
	}

	a.store(ctx, userID, key, breakdownTTL, out)
	return &out, nil
}

// ExportCSV writes the owner's analytics as a multi-section CSV: time
// series, devices, referrers and countries, each closed by a Total row and
// a blank line. The stream is BOM-prefixed for spreadsheet tools.
func (a *Analytics) ExportCSV(ctx context.Context, userID uint, days int, w io.Writer) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	series, err := a.seriesFor(ctx, userID, 0, days)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	var total int64
	if err := cw.Write([]string{"Date", "Clicks"}); err != nil {
		return err
	}
	for _, p := range series {
		total += p.Count
		if err := cw.Write([]string{p.Bucket, strconv.FormatInt(p.Count, 10)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"Total", strconv.FormatInt(total, 10)}); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	sections := []struct {
		header string
		kind   string
	}{
		{"Device", "device"},
		{"Referrer", "referrer"},
		{"Country", "country"},
	}

	for _, section := range sections {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}

		entries, err := a.breakdownFor(ctx, userID, 0, section.kind, days)
		if err != nil {
			return err
		}

		cw = csv.NewWriter(w)
		if err := cw.Write([]string{section.header, "Clicks", "Percentage"}); err != nil {
			return err
		}
		var sectionTotal int64
		for _, e := range entries {
			sectionTotal += e.Count
			row := []string{e.Label, strconv.FormatInt(e.Count, 10), strconv.FormatFloat(e.Percentage, 'f', 2, 64)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{"Total", strconv.FormatInt(sectionTotal, 10), ""}); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	}

	return nil
}

// --- internals ---

func ownerKeySet(userID uint) string {
	return fmt.Sprintf("analytics:keys:%d", userID)
}

func (a *Analytics) cacheKey(userID uint, kind string, params ...any) string {
	key := fmt.Sprintf("analytics:%d:%s", userID, kind)
	for _, p := range params {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

func (a *Analytics) lookup(ctx context.Context, key string, fresh bool) ([]byte, bool) {
	if fresh {
		a.cache.Delete(ctx, key)
		a.metrics.IncCacheMiss()
		return nil, false
	}
	data, ok := a.cache.Get(ctx, key)
	if ok {
		a.metrics.IncCacheHit()
	} else {
		a.metrics.IncCacheMiss()
	}
	return data, ok
}

func (a *Analytics) store(ctx context.Context, userID uint, key string, ttl time.Duration, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Warn("Failed to marshal analytics payload", "key", key, "error", err)
		return
	}
	a.cache.Set(ctx, key, data, ttl)
	a.cache.AddToSet(ctx, ownerKeySet(userID), key)
}

func (a *Analytics) hitsQuery(ctx context.Context, userID uint, linkID uint) *gorm.DB {
	q := a.db.WithContext(ctx).Model(&models.Redirect{}).
		Joins("JOIN links ON links.id = redirects.link_id").
		Where("links.user_id = ? AND links.deleted_at IS NULL", userID)
	if linkID != 0 {
		q = q.Where("redirects.link_id = ?", linkID)
	}
	return q
}

func (a *Analytics) countHits(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var n int64
	err := a.hitsQuery(ctx, userID, 0).
		Where("redirects.created_at >= ? AND redirects.created_at < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count hits: %w", err)
	}
	return n, nil
}

// seriesFor buckets hit timestamps in Go so the bucketing is identical on
// postgres and sqlite.
func (a *Analytics) seriesFor(ctx context.Context, userID, linkID uint, days int) ([]SeriesPoint, error) {
	now := time.Now()
	since := periodStart(now, days)

	var stamps []time.Time
	err := a.hitsQuery(ctx, userID, linkID).
		Where("redirects.created_at >= ?", since).
		Pluck("redirects.created_at", &stamps).Error
	if err != nil {
		return nil, fmt.Errorf("series hits: %w", err)
	}

	counts := make(map[string]int64, len(stamps))
	for _, ts := range stamps {
		counts[bucketKey(ts, days)]++
	}

	var out []SeriesPoint
	for cursor := since; !cursor.After(now); cursor = nextBucket(cursor, days) {
		k := bucketKey(cursor, days)
		out = append(out, SeriesPoint{Bucket: k, Count: counts[k]})
	}
	return out, nil
}

func (a *Analytics) breakdownFor(ctx context.Context, userID, linkID uint, kind string, days int) ([]BreakdownEntry, error) {
	since := periodStart(time.Now(), days)

	if kind == "referrer" {
		return a.referrerBreakdown(ctx, userID, linkID, since)
	}

	column := "redirects." + kind
	var rows []struct {
		Label string
		Count int64
	}
	err := a.hitsQuery(ctx, userID, linkID).
		Select(column+" as label, count(*) as count").
		Where("redirects.created_at >= ?", since).
		Group(column).
		Order("count desc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s breakdown: %w", kind, err)
	}

	entries := make([]BreakdownEntry, 0, len(rows))
	for _, row := range rows {
		label := row.Label
		if label == "" {
			label = CountryUnknown
		}
		entries = append(entries, BreakdownEntry{Label: label, Count: row.Count})
	}
	fillPercentages(entries)
	return entries, nil
}

// referrerBreakdown groups raw referrers in SQL, then folds them down to
// registrable domains; the normalization is not expressible portably in SQL.
func (a *Analytics) referrerBreakdown(ctx context.Context, userID, linkID uint, since time.Time) ([]BreakdownEntry, error) {
	var rows []struct {
		Label string
		Count int64
	}
	err := a.hitsQuery(ctx, userID, linkID).
		Select("redirects.referrer as label, count(*) as count").
		Where("redirects.created_at >= ?", since).
		Group("redirects.referrer").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("referrer breakdown: %w", err)
	}

	folded := make(map[string]int64)
	for _, row := range rows {
		folded[utils.NormalizeReferrer(row.Label)] += row.Count
	}

	entries := make([]BreakdownEntry, 0, len(folded))
	for label, count := range folded {
		entries = append(entries, BreakdownEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	fillPercentages(entries)
	return entries, nil
}

func fillPercentages(entries []BreakdownEntry) {
	var total int64
	for _, e := range entries {
		total += e.Count
	}
	if total == 0 {
		return
	}
	for i := range entries {
		entries[i].Percentage = round2(float64(entries[i].Count) / float64(total) * 100)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func periodStart(now time.Time, days int) time.Time {
	switch days {
	case 7:
		return now.Truncate(time.Hour).Add(-167 * time.Hour)
	case 365:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return firstOfMonth.AddDate(0, -11, 0)
	default:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return midnight.AddDate(0, 0, -(days - 1))
	}
}

func nextBucket(t time.Time, days int) time.Time {
	switch days {
	case 7:
		return t.Add(time.Hour)
	case 365:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketKey(t time.Time, days int) string {
	switch days {
	case 7:
		return t.Format("2006-01-02 15:00")
	case 365:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}
