package db

import "testing"

func TestListQuery_NoFilters(t *testing.T) {
	q := NewListQuery("patient", "id, name")
	q.OrderBy("name")

	if got := q.CountSQL(); got != "SELECT COUNT(*) FROM patient WHERE 1=1" {
		t.Errorf("unexpected count SQL %q", got)
	}
	if got := q.DataSQL(); got != "SELECT id, name FROM patient WHERE 1=1 ORDER BY name LIMIT $1 OFFSET $2" {
		t.Errorf("unexpected data SQL %q", got)
	}
	args := q.DataArgs(20, 40)
	if len(args) != 2 || args[0] != 20 || args[1] != 40 {
		t.Errorf("unexpected args %v", args)
	}
}

func TestListQuery_Filters(t *testing.T) {
	q := NewListQuery("appointment", "id")
	q.Eq("patient_id", int64(42))
	q.Contains("ana", "name", "national_id")
	q.Eq("status", "SCHEDULED")

	want := "SELECT COUNT(*) FROM appointment WHERE 1=1 AND patient_id = $1 AND (name ILIKE $2 ESCAPE '\\' OR national_id ILIKE $2 ESCAPE '\\') AND status = $3"
	if got := q.CountSQL(); got != want {
		t.Errorf("count SQL\n got %q\nwant %q", got, want)
	}
	if q.Idx() != 4 {
		t.Errorf("expected next index 4, got %d", q.Idx())
	}
	if got := q.DataSQL(); got != "SELECT id FROM appointment WHERE 1=1 AND patient_id = $1 AND (name ILIKE $2 ESCAPE '\\' OR national_id ILIKE $2 ESCAPE '\\') AND status = $3 LIMIT $4 OFFSET $5" {
		t.Errorf("unexpected data SQL %q", got)
	}

	args := q.DataArgs(10, 0)
	if len(args) != 5 || args[1] != "%ana%" || args[3] != 10 {
		t.Errorf("unexpected args %v", args)
	}
}

func TestListQuery_ContainsEscapesWildcards(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"%", `%\%%`},
		{"_", `%\_%`},
		{`a\b`, `%a\\b%`},
		{"50%_off", `%50\%\_off%`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q := NewListQuery("patient", "id")
			q.Contains(tt.in, "name")
			if got := q.CountArgs()[0]; got != tt.want {
				t.Errorf("pattern = %q, want %q", got, tt.want)
			}
		})
	}
}
