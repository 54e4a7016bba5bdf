package drivers

import (
	"fmt"
	"regexp"
	"strings"
)

const regexDelimiter = "/"

type Filter struct {
	Only   []string
	Except []string
}

// ClassifyPatterns splits the patterns into plain names and regular
// expressions. A regular expression is delimited by slashes, e.g. /^audit_/
func (f Filter) ClassifyPatterns(patterns []string) ([]string, []string) {
	var stringPatterns, regexPatterns []string //nolint:prealloc

	for _, pattern := range patterns {
		if isRegexPattern(pattern, regexDelimiter) {
			regexPatterns = append(regexPatterns, strings.Trim(pattern, regexDelimiter))
			continue
		}
		stringPatterns = append(stringPatterns, pattern)
	}

	return stringPatterns, regexPatterns
}

// Skip reports if the filter excludes the given name.
// Only takes precedence over Except.
func (f Filter) Skip(name string) (bool, error) {
	if len(f.Only) > 0 {
		matched, err := f.matches(f.Only, name)
		return !matched, err
	}

	if len(f.Except) > 0 {
		return f.matches(f.Except, name)
	}

	return false, nil
}

func (f Filter) matches(patterns []string, name string) (bool, error) {
	names, regexes := f.ClassifyPatterns(patterns)
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}

	for _, r := range regexes {
		rgx, err := regexp.Compile(r)
		if err != nil {
			return false, fmt.Errorf("invalid filter pattern %q: %w", r, err)
		}
		if rgx.MatchString(name) {
			return true, nil
		}
	}

	return false, nil
}

func isRegexPattern(pattern, delimiter string) bool {
	return len(pattern) > 1 && strings.HasPrefix(pattern, delimiter) && strings.HasSuffix(pattern, delimiter)
}

type ColumnFilter map[string]Filter

func ParseTableFilter(only, except map[string][]string) Filter {
	var filter Filter
	for name := range only {
		filter.Only = append(filter.Only, name)
	}

	for name, cols := range except {
		// If they only want to exclude some columns, then we don't want to exclude the whole table
		if len(cols) == 0 {
			filter.Except = append(filter.Except, name)
		}
	}

	return filter
}

func ParseColumnFilter(tables []string, only, except map[string][]string) ColumnFilter {
	global := Filter{
		Only:   only["*"],
		Except: except["*"],
	}

	colFilter := make(ColumnFilter, len(tables))
	for _, t := range tables {
		colFilter[t] = Filter{
			Only:   append(append([]string(nil), global.Only...), only[t]...),
			Except: append(append([]string(nil), global.Except...), except[t]...),
		}
	}
	return colFilter
}
