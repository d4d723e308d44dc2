package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quizhub-service/internal/domain"
)

func maskedFixtureReport() Report {
	quiz := fixtureQuiz()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	parts := []domain.Participation{
		participation("p1", "user-b", 20, nil, now),
		participation("p2", "user-a", 10, nil, now),
		participation("p3", "user-c", 5, nil, now),
	}
	return BuildReport(quiz, parts)
}

func TestMaskAdminUnchanged(t *testing.T) {
	report := maskedFixtureReport()
	masked := MaskForViewer(report, domain.RoleAdmin, StableMasker{})

	got, _ := json.Marshal(masked)
	want, _ := json.Marshal(report)
	if string(got) != string(want) {
		t.Fatal("admin view must be identical to the unmasked report")
	}
}

func TestMaskInstructorHidesNames(t *testing.T) {
	report := maskedFixtureReport()
	masked := MaskForViewer(report, domain.RoleInstructor, StableMasker{})

	raw, _ := json.Marshal(masked)
	for _, name := range []string{"User user-a", "User user-b", "User user-c", "user-a", "user-b", "user-c"} {
		if strings.Contains(string(raw), name) {
			t.Fatalf("real identity %q leaked into masked report", name)
		}
	}
	for _, row := range masked.PerformanceMatrix.Rows {
		if !strings.HasPrefix(row.UserName, "Student ") {
			t.Fatalf("expected synthetic label, got %q", row.UserName)
		}
	}
}

func TestMaskUnknownRoleFailsClosed(t *testing.T) {
	report := maskedFixtureReport()
	masked := MaskForViewer(report, domain.Role("superuser"), StableMasker{})
	for _, row := range masked.PerformanceMatrix.Rows {
		if strings.Contains(row.UserName, "user-") {
			t.Fatalf("unknown role must see masked data, got %q", row.UserName)
		}
	}
}

func TestMaskDoesNotTouchNumbers(t *testing.T) {
	report := maskedFixtureReport()
	masked := MaskForViewer(report, domain.RoleInstructor, StableMasker{})

	if masked.ParticipationStats != report.ParticipationStats {
		t.Fatal("participation stats must not change under masking")
	}
	for i, row := range masked.PerformanceMatrix.Rows {
		orig := report.PerformanceMatrix.Rows[i]
		if row.TotalScore != orig.TotalScore || row.Percentage != orig.Percentage {
			t.Fatalf("numeric fields changed: %+v vs %+v", row, orig)
		}
	}
}

func TestStableMaskerLabelsBySortedID(t *testing.T) {
	report := maskedFixtureReport()
	masked := StableMasker{}.Mask(report)

	// rows are sorted by score desc: user-b (20), user-a (10), user-c (5).
	// stable labels follow sorted ids: user-a=1, user-b=2, user-c=3.
	wantByScoreOrder := []string{"Student 2", "Student 1", "Student 3"}
	for i, row := range masked.PerformanceMatrix.Rows {
		if row.UserName != wantByScoreOrder[i] {
			t.Fatalf("row %d: got %q, want %q", i, row.UserName, wantByScoreOrder[i])
		}
	}

	// same input must produce the same labels on every call
	again := StableMasker{}.Mask(report)
	for i := range masked.PerformanceMatrix.Rows {
		if masked.PerformanceMatrix.Rows[i].UserName != again.PerformanceMatrix.Rows[i].UserName {
			t.Fatal("stable masker must be deterministic across calls")
		}
	}
}

func TestSequentialMaskerLabelsByEncounter(t *testing.T) {
	report := maskedFixtureReport()
	masked := SequentialMasker{}.Mask(report)

	want := []string{"Student 1", "Student 2", "Student 3"}
	for i, row := range masked.PerformanceMatrix.Rows {
		if row.UserName != want[i] {
			t.Fatalf("row %d: got %q, want %q", i, row.UserName, want[i])
		}
	}
}

func TestMaskRealtimeForViewer(t *testing.T) {
	quiz := fixtureQuiz()
	now := time.Now()
	parts := []domain.Participation{
		participation("p1", "user-a", 10, nil, now),
		participation("p2", "user-b", 20, nil, now),
	}
	stats := BuildRealtimeStats(quiz, parts, parts)

	masked := MaskRealtimeForViewer(stats, domain.RoleInstructor, StableMasker{})
	for _, a := range masked.RecentAttempts {
		if strings.Contains(a.UserName, "user-") || strings.Contains(a.UserID, "user-") {
			t.Fatalf("identity leaked in realtime view: %+v", a)
		}
	}

	admin := MaskRealtimeForViewer(stats, domain.RoleAdmin, StableMasker{})
	if admin.RecentAttempts[0].UserName != "User user-a" {
		t.Fatalf("admin realtime view must be unmasked, got %q", admin.RecentAttempts[0].UserName)
	}
}
