package course

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sort keys. An unrecognized key preserves input order.
const (
	SortLatest  = "latest"
	SortRating  = "rating"
	SortReviews = "reviews"
	SortAZ      = "a-z"
	SortZA      = "z-a"
)

// Duration facet bucket tags.
const (
	DurationUnder1Week  = "<1week"
	Duration1To4Weeks   = "1-4weeks"
	Duration1To3Months  = "1-3months"
	Duration3To6Months  = "3-6months"
	Duration6To12Months = "6-12months"
)

// Published-date facet bucket tags.
const (
	PublishedThisWeek    = "thisweek"
	PublishedThisMonth   = "thismonth"
	PublishedLast6Months = "last6months"
	PublishedThisYear    = "thisyear"
)

var (
	durationBuckets = []FilterOption{
		{Label: "Less than 1 week", Value: DurationUnder1Week},
		{Label: "1-4 weeks", Value: Duration1To4Weeks},
		{Label: "1-3 months", Value: Duration1To3Months},
		{Label: "3-6 months", Value: Duration3To6Months},
		{Label: "6-12 months", Value: Duration6To12Months},
	}

	publishedBuckets = []FilterOption{
		{Label: "This week", Value: PublishedThisWeek},
		{Label: "This month", Value: PublishedThisMonth},
		{Label: "Last 6 months", Value: PublishedLast6Months},
		{Label: "This year", Value: PublishedThisYear},
	}

	ratingThresholds = []float64{4.5, 4.0, 3.5, 3.0}

	difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

	numberRegex = regexp.MustCompile(`\d+(\.\d+)?`)
)

const maxTopicOptions = 20

var nowFunc = time.Now // mockable

// Search runs the catalog query pipeline in fixed order: text filter, facet
// filters, stable sort, page slice. A page past the end yields an empty slice,
// not an error.
func Search(all []Course, query string, filters SearchFilters, sortBy string, page, pageSize int) SearchResult {
	matched := filterByQuery(all, query)
	matched = filterByFacets(matched, filters)
	applySort(matched, sortBy)

	filteredCount := len(matched)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > filteredCount {
		start = filteredCount
	}
	if end > filteredCount {
		end = filteredCount
	}

	return SearchResult{
		Courses:       matched[start:end],
		TotalCount:    len(all),
		FilteredCount: filteredCount,
	}
}

// ComputeFilterCounts computes per-facet option counts against the
// query-filtered course set only, so a facet's own selection never hides its
// sibling options. Author and topic options are derived from the data and
// sorted by count descending; topics are capped at 20.
func ComputeFilterCounts(all []Course, query string) FilterCounts {
	base := filterByQuery(all, query)
	now := nowFunc()

	counts := FilterCounts{}

	for _, opt := range durationBuckets {
		n := 0
		for _, c := range base {
			if durationBucket(c.DurationText) == opt.Value {
				n++
			}
		}
		opt.Count = n
		counts.Duration = append(counts.Duration, opt)
	}

	for _, threshold := range ratingThresholds {
		n := 0
		for _, c := range base {
			if c.Rating >= threshold {
				n++
			}
		}
		counts.Rating = append(counts.Rating, FilterOption{
			Label: strconv.FormatFloat(threshold, 'f', 1, 64) + " & up",
			Value: strconv.FormatFloat(threshold, 'f', 1, 64),
			Count: n,
		})
	}

	for _, opt := range publishedBuckets {
		n := 0
		for _, c := range base {
			if publishedMatches(c.PublishedDate, opt.Value, now) {
				n++
			}
		}
		opt.Count = n
		counts.PublishedDate = append(counts.PublishedDate, opt)
	}

	for _, level := range difficulties {
		n := 0
		for _, c := range base {
			if c.Difficulty == level {
				n++
			}
		}
		counts.CourseLevel = append(counts.CourseLevel, FilterOption{Label: level, Value: level, Count: n})
	}

	authors := make(map[string]int)
	topics := make(map[string]int)
	for _, c := range base {
		authors[c.Provider.Name]++
		for _, skill := range c.Skills {
			topics[skill]++
		}
	}
	counts.Author = groupedOptions(authors, 0)
	counts.Topics = groupedOptions(topics, maxTopicOptions)

	return counts
}

// Suggest returns up to limit case-insensitive suggestion matches for query.
// An empty query yields no suggestions.
func Suggest(all []Course, query string, limit int) []Course {
	if strings.TrimSpace(query) == "" {
		return []Course{}
	}
	matched := filterByQuery(all, query)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// filterByQuery does a case-insensitive substring match against title,
// subtitle and every skill tag; a course matches if any of the three matches.
func filterByQuery(all []Course, query string) []Course {
	query = strings.ToLower(strings.TrimSpace(query))
	matched := make([]Course, 0, len(all))
	if query == "" {
		return append(matched, all...)
	}
	for _, c := range all {
		if matchesQuery(c, query) {
			matched = append(matched, c)
		}
	}
	return matched
}

func matchesQuery(c Course, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(c.Title), lowerQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Subtitle), lowerQuery) {
		return true
	}
	for _, skill := range c.Skills {
		if strings.Contains(strings.ToLower(skill), lowerQuery) {
			return true
		}
	}
	return false
}

// filterByFacets ANDs every present facet filter; absent facets (and empty
// sets) impose no constraint. Values are taken literally, not validated.
func filterByFacets(courses []Course, filters SearchFilters) []Course {
	matched := make([]Course, 0, len(courses))
	now := nowFunc()
	for _, c := range courses {
		if len(filters.Duration) > 0 && !containsString(filters.Duration, durationBucket(c.DurationText)) {
			continue
		}
		if filters.Rating != 0 && c.Rating < filters.Rating {
			continue
		}
		if filters.PublishedDate != "" && !publishedMatches(c.PublishedDate, filters.PublishedDate, now) {
			continue
		}
		if len(filters.CourseLevel) > 0 && !containsString(filters.CourseLevel, c.Difficulty) {
			continue
		}
		if len(filters.Author) > 0 && !containsString(filters.Author, c.Provider.Name) {
			continue
		}
		if len(filters.Topics) > 0 && !anyStringIn(c.Skills, filters.Topics) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

func applySort(courses []Course, sortBy string) {
	switch sortBy {
	case SortLatest:
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].PublishedDate.After(courses[j].PublishedDate)
		})
	case SortRating:
		sort.SliceStable(courses, func(i, j int) bool { return courses[i].Rating > courses[j].Rating })
	case SortReviews:
		sort.SliceStable(courses, func(i, j int) bool { return courses[i].ReviewCount > courses[j].ReviewCount })
	case SortAZ:
		sort.SliceStable(courses, func(i, j int) bool {
			return strings.ToLower(courses[i].Title) < strings.ToLower(courses[j].Title)
		})
	case SortZA:
		sort.SliceStable(courses, func(i, j int) bool {
			return strings.ToLower(courses[i].Title) > strings.ToLower(courses[j].Title)
		})
	}
}

// durationBucket maps free-form duration text ("18h 30m", "3 weeks",
// "6 months") onto a bucket tag via a heuristic day count. Unparseable text
// falls in no bucket.
func durationBucket(text string) string {
	days, ok := durationDays(text)
	if !ok {
		return ""
	}
	switch {
	case days < 7:
		return DurationUnder1Week
	case days <= 28:
		return Duration1To4Weeks
	case days <= 90:
		return Duration1To3Months
	case days <= 180:
		return Duration3To6Months
	case days <= 365:
		return Duration6To12Months
	}
	return ""
}

func durationDays(text string) (float64, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return 0, false
	}
	n := 1.0
	if m := numberRegex.FindString(t); m != "" {
		n, _ = strconv.ParseFloat(m, 64)
	}
	switch {
	case strings.Contains(t, "month"):
		return n * 30, true
	case strings.Contains(t, "week"):
		return n * 7, true
	case strings.Contains(t, "day"):
		return n, true
	case strings.Contains(t, "h") || strings.Contains(t, "min"):
		// hour-scale content sits well under a week regardless of the count
		return n / 24, true
	}
	return 0, false
}

// publishedMatches buckets nest: a course published this week also matches
// thismonth, last6months and thisyear.
func publishedMatches(published time.Time, bucket string, now time.Time) bool {
	days := now.Sub(published).Hours() / 24
	switch bucket {
	case PublishedThisWeek:
		return days <= 7
	case PublishedThisMonth:
		return days <= 30
	case PublishedLast6Months:
		return days <= 183
	case PublishedThisYear:
		return days <= 365
	}
	return false
}

func groupedOptions(counts map[string]int, limit int) []FilterOption {
	opts := make([]FilterOption, 0, len(counts))
	for value, count := range counts {
		opts = append(opts, FilterOption{Label: value, Value: value, Count: count})
	}
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].Count != opts[j].Count {
			return opts[i].Count > opts[j].Count
		}
		return opts[i].Label < opts[j].Label // deterministic ties
	})
	if limit > 0 && len(opts) > limit {
		opts = opts[:limit]
	}
	return opts
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func anyStringIn(values, set []string) bool {
	for _, v := range values {
		if containsString(set, v) {
			return true
		}
	}
	return false
}
