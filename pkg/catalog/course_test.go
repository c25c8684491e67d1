package catalog

import (
	"encoding/json"
	"testing"
)

func TestSearchResponse_Decode(t *testing.T) {
	body := `{
		"corsi": [
			{"id": 1, "nomeCorsoEn": "Computer Science", "nomeStruttura": "Politecnico di Milano",
			 "lingua": "EN", "tipoLaurea": {"descrizioneEn": "EN Triennale", "codice": "L"}, "extra": true},
			{"id": 2, "nomeCorsoEn": "Informatica", "lingua": "IT"}
		],
		"totale": 11500
	}`

	var resp SearchResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(resp.Courses) != 2 {
		t.Fatalf("Courses = %d, want 2", len(resp.Courses))
	}

	first := resp.Courses[0]
	if first.ID != 1 || first.NameEn != "Computer Science" || first.Language != "EN" {
		t.Errorf("unexpected first course: %+v", first)
	}
	if first.University != "Politecnico di Milano" {
		t.Errorf("University = %q", first.University)
	}
	if got := first.DegreeDescription(); got != "EN Triennale" {
		t.Errorf("DegreeDescription() = %q, want %q", got, "EN Triennale")
	}

	if got := resp.Courses[1].DegreeDescription(); got != "" {
		t.Errorf("DegreeDescription() without tipoLaurea = %q, want empty", got)
	}
}

func TestSearchResponse_MissingCourses(t *testing.T) {
	var resp SearchResponse
	if err := json.Unmarshal([]byte(`{"totale": 0}`), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(resp.Courses) != 0 {
		t.Errorf("Courses = %d, want 0", len(resp.Courses))
	}
}
