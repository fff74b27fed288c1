package attributes

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{4})`),
	regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{2})\b`),
	regexp.MustCompile(`(\d{1,2})[/-]\s*(\d{1,2})[/-]\s*(\d{4})`),
}

var decisionKeywords = []string{
	"aufstellungsbeschluss",
	"beschluss",
	"satzungsbeschluss",
	"beschlossen am",
	"beschlossen",
	"beschlussfassung",
	"beschluss vom",
	"beschlussfassung am",
}

type dateMatch struct {
	context string
	date    time.Time
}

func parseDateMatch(daysStr, monthStr, yearStr string) (time.Time, bool) {
	year := yearStr
	if len(year) == 2 {
		n, _ := strconv.Atoi(year)
		if n < 50 {
			year = "20" + year
		} else {
			year = "19" + year
		}
	}
	yearInt, err1 := strconv.Atoi(year)
	monthInt, err2 := strconv.Atoi(monthStr)
	dayInt, err3 := strconv.Atoi(daysStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if monthInt < 1 || monthInt > 12 || dayInt < 1 || dayInt > 31 {
		return time.Time{}, false
	}
	date := time.Date(yearInt, time.Month(monthInt), dayInt, 0, 0, 0, 0, time.UTC)
	if date.Year() != yearInt || int(date.Month()) != monthInt || date.Day() != dayInt {
		return time.Time{}, false
	}
	return date, true
}

func extractDates(text string) []dateMatch {
	var results []dateMatch
	for _, pattern := range datePatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			day := text[loc[2]:loc[3]]
			month := text[loc[4]:loc[5]]
			year := text[loc[6]:loc[7]]

			date, ok := parseDateMatch(day, month, year)
			if !ok {
				continue
			}
			if date.Year() < 2020 || date.Year() > 2030 {
				continue
			}

			start := loc[0] - 50
			if start < 0 {
				start = 0
			}
			end := loc[1] + 50
			if end > len(text) {
				end = len(text)
			}
			context := strings.TrimSpace(text[start:end])
			results = append(results, dateMatch{context: context, date: date})
		}
	}
	return results
}

// FindDecisionDate returns the first extracted date whose surrounding
// context starts within 200 characters of a decision keyword
// (Aufstellungsbeschluss, Beschluss, ...), trying the keywords in
// decisionKeywords order, and falls back to the first date found
// anywhere in the text.
func FindDecisionDate(text string) *time.Time {
	textLower := strings.ToLower(text)
	dates := extractDates(text)

	for _, keyword := range decisionKeywords {
		keywordPos := strings.Index(textLower, keyword)
		if keywordPos == -1 {
			continue
		}
		for _, dm := range dates {
			datePos := strings.Index(textLower, strings.ToLower(dm.context))
			if datePos == -1 {
				continue
			}
			diff := datePos - keywordPos
			if diff < 0 {
				diff = -diff
			}
			if diff < 200 {
				d := dm.date
				return &d
			}
		}
	}

	if len(dates) > 0 {
		d := dates[0].date
		return &d
	}
	return nil
}
