package filter

import (
	"reflect"
	"testing"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
)

func course(id int, name, lang, degree string) catalog.Course {
	c := catalog.Course{ID: id, NameEn: name, Language: lang}
	if degree != "" {
		c.Degree = &catalog.DegreeType{DescriptionEn: degree}
	}
	return c
}

func sampleCourses() []catalog.Course {
	return []catalog.Course{
		course(1, "Computer Science", "EN", "EN Triennale"),
		course(2, "Informatica", "IT", "EN Magistrale"),
		course(3, "Computer Engineering", "EN", "EN Magistrale"),
		course(4, "Ingegneria Informatica", "IT", "EN Triennale"),
		course(5, "Architecture", "EN", ""),
		course(6, "ÉTUDES EUROPÉENNES", "FR", "EN Magistrale"),
	}
}

func ids(courses []catalog.Course) []int {
	out := make([]int, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []int
	}{
		{
			name:     "default criteria keeps everything",
			criteria: Criteria{},
			want:     []int{1, 2, 3, 4, 5, 6},
		},
		{
			name:     "text is case-insensitive substring",
			criteria: Criteria{Text: "COMP"},
			want:     []int{1, 3},
		},
		{
			name:     "text with surrounding whitespace is trimmed",
			criteria: Criteria{Text: "  informatica "},
			want:     []int{2, 4},
		},
		{
			name:     "leading space does not prevent a prefix match",
			criteria: Criteria{Text: " comp"},
			want:     []int{1, 3},
		},
		{
			name:     "whitespace-only text is inactive",
			criteria: Criteria{Text: "   "},
			want:     []int{1, 2, 3, 4, 5, 6},
		},
		{
			name:     "text folds non-ascii case",
			criteria: Criteria{Text: "études"},
			want:     []int{6},
		},
		{
			name:     "english only",
			criteria: Criteria{EnglishOnly: true},
			want:     []int{1, 3, 5},
		},
		{
			name:     "degree equality",
			criteria: Criteria{Degree: DegreeMaster},
			want:     []int{2, 3, 6},
		},
		{
			name:     "degree is case-sensitive",
			criteria: Criteria{Degree: Degree("en magistrale")},
			want:     []int{},
		},
		{
			name:     "conjunction of all predicates",
			criteria: Criteria{Text: "comp", EnglishOnly: true, Degree: DegreeMaster},
			want:     []int{3},
		},
		{
			name:     "no match",
			criteria: Criteria{Text: "medicine"},
			want:     []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sampleCourses(), tt.criteria))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_Scenario(t *testing.T) {
	courses := []catalog.Course{
		course(1, "Computer Science", "EN", "EN Triennale"),
		course(2, "Informatica", "IT", "EN Magistrale"),
	}

	got := Apply(courses, Criteria{Text: "comp", EnglishOnly: true})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Apply() = %v, want [1]", ids(got))
	}
}

func TestApply_Idempotent(t *testing.T) {
	criteria := []Criteria{
		{},
		{Text: "comp"},
		{EnglishOnly: true},
		{Degree: DegreeBachelor},
		{Text: "in", EnglishOnly: true, Degree: DegreeMaster},
	}

	for _, c := range criteria {
		once := Apply(sampleCourses(), c)
		twice := Apply(once, c)
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Errorf("Apply not idempotent for %+v: %v vs %v", c, ids(once), ids(twice))
		}
	}
}

func TestApply_Monotonic(t *testing.T) {
	base := Criteria{Text: "i"}
	tightened := []Criteria{
		{Text: "i", EnglishOnly: true},
		{Text: "i", Degree: DegreeBachelor},
		{Text: "i", EnglishOnly: true, Degree: DegreeMaster},
	}

	baseLen := len(Apply(sampleCourses(), base))
	for _, c := range tightened {
		if n := len(Apply(sampleCourses(), c)); n > baseLen {
			t.Errorf("tightening to %+v grew output: %d > %d", c, n, baseLen)
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	courses := sampleCourses()
	before := ids(courses)

	_ = Apply(courses, Criteria{Text: "comp", EnglishOnly: true})

	if !reflect.DeepEqual(ids(courses), before) {
		t.Errorf("input mutated: %v, want %v", ids(courses), before)
	}
}

func TestApply_Empty(t *testing.T) {
	if got := Apply(nil, Criteria{Text: "x"}); len(got) != 0 {
		t.Errorf("Apply(nil) = %v, want empty", got)
	}
}

func TestParseDegree(t *testing.T) {
	tests := []struct {
		input string
		want  Degree
	}{
		{"", DegreeAny},
		{"All Degree Types", DegreeAny},
		{"all", DegreeAny},
		{"triennale", DegreeBachelor},
		{"Bachelor", DegreeBachelor},
		{"EN Magistrale", DegreeMaster},
		{"master", DegreeMaster},
		{"Laurea a ciclo unico", Degree("Laurea a ciclo unico")},
	}

	for _, tt := range tests {
		if got := ParseDegree(tt.input); got != tt.want {
			t.Errorf("ParseDegree(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	c := course(1, "Computer Science", "EN", "EN Triennale")
	if !Match(c, Criteria{Text: "science", Degree: DegreeBachelor}) {
		t.Error("expected match")
	}
	if Match(c, Criteria{Degree: DegreeMaster}) {
		t.Error("expected no match for different degree")
	}
}

func TestKnownDegreesParse(t *testing.T) {
	for _, d := range KnownDegrees {
		if got := ParseDegree(string(d)); got != d {
			t.Errorf("ParseDegree(%q) = %q, want %q", d, got, d)
		}
	}
}
