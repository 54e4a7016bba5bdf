package drivers

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_isRegexPattern(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		delimiter string
		expected  bool
	}{
		{
			name:      "valid",
			pattern:   "/a/",
			delimiter: "/",
			expected:  true,
		},
		{
			name:      "not closed",
			pattern:   "/a",
			delimiter: "/",
			expected:  false,
		},
		{
			name:      "not delimited",
			pattern:   "a",
			delimiter: "/",
			expected:  false,
		},
		{
			name:      "lone delimiter",
			pattern:   "/",
			delimiter: "/",
			expected:  false,
		},
	}
	for _, tt := range tests {
		if actual := isRegexPattern(tt.pattern, tt.delimiter); actual != tt.expected {
			t.Errorf("isRegexPattern() = %v, want %v", actual, tt.expected)
		}
	}
}

func TestClassifyPatterns(t *testing.T) {
	tests := []struct {
		name                   string
		patterns               []string
		expectedStringPatterns []string
		expectedRegexPatterns  []string
	}{
		{
			name: "valid regex patterns",
			patterns: []string{
				"/regex/",
				"not regex",
			},
			expectedStringPatterns: []string{"not regex"},
			expectedRegexPatterns:  []string{"regex"},
		},
		{
			name: "invalid regex patterns",
			patterns: []string{
				"/bad regex",
			},
			expectedStringPatterns: []string{"/bad regex"},
			expectedRegexPatterns:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualStringPatterns, actualRegexPatterns := Filter{}.ClassifyPatterns(tt.patterns)
			if !slices.Equal(actualStringPatterns, tt.expectedStringPatterns) {
				t.Errorf("ClassifyPatterns() got = %v, want %v", actualStringPatterns, tt.expectedStringPatterns)
			}
			if !slices.Equal(actualRegexPatterns, tt.expectedRegexPatterns) {
				t.Errorf("ClassifyPatterns() got = %v, want %v", actualRegexPatterns, tt.expectedRegexPatterns)
			}
		})
	}
}

func TestFilterSkip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter Filter
		table  string
		skip   bool
	}{
		{name: "no filter", filter: Filter{}, table: "users", skip: false},
		{name: "only match", filter: Filter{Only: []string{"users"}}, table: "users", skip: false},
		{name: "only miss", filter: Filter{Only: []string{"users"}}, table: "posts", skip: true},
		{name: "only regex", filter: Filter{Only: []string{"/^us/"}}, table: "users", skip: false},
		{name: "except match", filter: Filter{Except: []string{"migrations"}}, table: "migrations", skip: true},
		{name: "except miss", filter: Filter{Except: []string{"migrations"}}, table: "users", skip: false},
		{name: "except regex", filter: Filter{Except: []string{"/_audit$/"}}, table: "users_audit", skip: true},
		{
			name:   "only wins over except",
			filter: Filter{Only: []string{"users"}, Except: []string{"users"}},
			table:  "users",
			skip:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, err := tt.filter.Skip(tt.table)
			if err != nil {
				t.Fatal(err)
			}
			if skip != tt.skip {
				t.Errorf("Skip(%q) = %t, want %t", tt.table, skip, tt.skip)
			}
		})
	}
}

func TestFilterSkipBadRegex(t *testing.T) {
	t.Parallel()

	_, err := Filter{Only: []string{"/(/"}}.Skip("users")
	if err == nil {
		t.Fatal("expected an error for an invalid pattern")
	}
}

func TestParseTableFilter(t *testing.T) {
	t.Parallel()

	filter := ParseTableFilter(
		map[string][]string{"users": nil},
		map[string][]string{"migrations": nil, "posts": {"body"}},
	)

	if diff := cmp.Diff([]string{"users"}, filter.Only); diff != "" {
		t.Fatal(diff)
	}

	// excluding only some columns must keep the table
	if diff := cmp.Diff([]string{"migrations"}, filter.Except); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseColumnFilter(t *testing.T) {
	t.Parallel()

	colFilter := ParseColumnFilter(
		[]string{"users", "posts"},
		map[string][]string{"*": {"id"}, "users": {"name"}},
		map[string][]string{"posts": {"body"}},
	)

	expected := ColumnFilter{
		"users": {Only: []string{"id", "name"}},
		"posts": {Only: []string{"id"}, Except: []string{"body"}},
	}

	if diff := cmp.Diff(expected, colFilter); diff != "" {
		t.Fatal(diff)
	}
}
