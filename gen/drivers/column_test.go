package drivers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestColumnNames(t *testing.T) {
	t.Parallel()

	if names := ColumnNames(nil); len(names) != 0 {
		t.Errorf("expected no names, got %v", names)
	}

	cols := []Column{
		{Name: "id", AutoIncr: true},
		{Name: "author_id"},
		{Name: "title", Nullable: true},
	}

	if diff := cmp.Diff([]string{"id", "author_id", "title"}, ColumnNames(cols)); diff != "" {
		t.Error(diff)
	}
}
