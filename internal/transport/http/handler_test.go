package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/infra/memory"
	transport "quizhub-service/internal/transport/http"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.SeedUser(domain.User{ID: "u1", Name: "Alice", Role: domain.RoleLearner})
	store.SeedUser(domain.User{ID: "u2", Name: "Bob", Role: domain.RoleLearner})
	store.SeedQuiz(domain.Quiz{
		ID: "quiz-1", OwnerID: "instructor-1", Title: "Capitals", TotalScore: 15,
		Questions: []domain.Question{
			{
				ID: "q1", QuizID: "quiz-1", Type: domain.QuestionMultipleChoice,
				Text: "Capital of France?", Score: 10,
				Choices: []domain.Choice{
					{ID: "c1", Text: "Paris", IsCorrect: true},
					{ID: "c2", Text: "London"},
				},
			},
			{
				ID: "q2", QuizID: "quiz-1", Type: domain.QuestionIdentification,
				Text: "6 x 7?", Score: 5,
				Choices: []domain.Choice{{ID: "c3", Text: "42", IsCorrect: true}},
			},
		},
	})

	cache := memory.NewViewCache()
	quizzes := memory.NewQuizRepository(store, 5*time.Minute)
	recorder := app.NewParticipationService(quizzes, store, cache, app.NewStatsFeed())
	reports := app.NewAnalyticsService(store, cache, 5*time.Minute)
	exporter := app.NewExporter(reports)

	mux := http.NewServeMux()
	transport.NewHandler(recorder, reports, exporter).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func submitBody(userID string) string {
	return `{
		"user_id": "` + userID + `",
		"quiz_id": "quiz-1",
		"answers": [
			{"question_id": "q1", "answer": "Paris"},
			{"question_id": "q2", "answer": "42"}
		]
	}`
}

func postSubmission(t *testing.T, server *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/participations", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func getWithRole(t *testing.T, server *httptest.Server, path string, role domain.Role) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if role != "" {
		req.Header.Set("X-Viewer-Role", string(role))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestSubmitParticipationEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postSubmission(t, server, submitBody("u1"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result domain.SubmissionResult
	decodeBody(t, resp, &result)
	if result.TotalScore != 15 || result.XPEarned != 120 || result.Percentage != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ParticipationID == "" {
		t.Fatal("expected a participation id")
	}
}

func TestSubmitParticipationDuplicate(t *testing.T) {
	server, _ := newTestServer(t)

	first := postSubmission(t, server, submitBody("u1"))
	first.Body.Close()
	resp := postSubmission(t, server, submitBody("u1"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error != "you have already taken this quiz" {
		t.Fatalf("unexpected error message: %q", body.Error)
	}
}

func TestSubmitParticipationBadRequests(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"user_id": `, http.StatusBadRequest},
		{"missing ids", `{"answers": []}`, http.StatusBadRequest},
		{"no answers", `{"user_id": "u1", "quiz_id": "quiz-1", "answers": []}`, http.StatusBadRequest},
		{"unknown quiz", `{"user_id": "u1", "quiz_id": "nope", "answers": [{"question_id": "q1", "answer": "Paris"}]}`, http.StatusNotFound},
		{"foreign question", `{"user_id": "u1", "quiz_id": "quiz-1", "answers": [{"question_id": "qx", "answer": "Paris"}]}`, http.StatusBadRequest},
		{"wrong answer shape", `{"user_id": "u1", "quiz_id": "quiz-1", "answers": [{"question_id": "q1", "answer": ["Paris"]}]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postSubmission(t, server, tc.body)
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestAnalyticsEndpointMasksByRole(t *testing.T) {
	server, _ := newTestServer(t)
	postSubmission(t, server, submitBody("u1")).Body.Close()

	var forAdmin struct {
		PerformanceMatrix struct {
			Rows []struct {
				UserName string `json:"userName"`
			} `json:"rows"`
		} `json:"performanceMatrix"`
	}
	resp := getWithRole(t, server, "/analytics?quizId=quiz-1", domain.RoleAdmin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &forAdmin)
	if len(forAdmin.PerformanceMatrix.Rows) != 1 || forAdmin.PerformanceMatrix.Rows[0].UserName != "Alice" {
		t.Fatalf("admin should see real names, got %+v", forAdmin.PerformanceMatrix.Rows)
	}

	var forInstructor struct {
		PerformanceMatrix struct {
			Rows []struct {
				UserName string `json:"userName"`
			} `json:"rows"`
		} `json:"performanceMatrix"`
	}
	resp = getWithRole(t, server, "/analytics?quizId=quiz-1", domain.RoleInstructor)
	decodeBody(t, resp, &forInstructor)
	if forInstructor.PerformanceMatrix.Rows[0].UserName != "Student 1" {
		t.Fatalf("instructor should see masked names, got %+v", forInstructor.PerformanceMatrix.Rows)
	}

	// no role header at all is also masked
	var anonymous struct {
		PerformanceMatrix struct {
			Rows []struct {
				UserName string `json:"userName"`
			} `json:"rows"`
		} `json:"performanceMatrix"`
	}
	resp = getWithRole(t, server, "/analytics?quizId=quiz-1", "")
	decodeBody(t, resp, &anonymous)
	if anonymous.PerformanceMatrix.Rows[0].UserName != "Student 1" {
		t.Fatalf("missing role should be masked, got %+v", anonymous.PerformanceMatrix.Rows)
	}
}

func TestAnalyticsEndpointErrors(t *testing.T) {
	server, _ := newTestServer(t)

	resp := getWithRole(t, server, "/analytics", domain.RoleAdmin)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without quizId, got %d", resp.StatusCode)
	}

	resp = getWithRole(t, server, "/analytics?quizId=nope", domain.RoleAdmin)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", resp.StatusCode)
	}
}

func TestRealtimeAnalyticsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	postSubmission(t, server, submitBody("u1")).Body.Close()
	postSubmission(t, server, submitBody("u2")).Body.Close()

	var stats struct {
		ParticipationStats struct {
			TotalParticipations int `json:"totalParticipations"`
		} `json:"participationStats"`
		RecentAttempts []struct {
			UserName string `json:"userName"`
		} `json:"recentAttempts"`
	}
	resp := getWithRole(t, server, "/analytics/realtime?quizId=quiz-1", domain.RoleAdmin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &stats)
	if stats.ParticipationStats.TotalParticipations != 2 || len(stats.RecentAttempts) != 2 {
		t.Fatalf("unexpected realtime stats: %+v", stats)
	}
	// newest first
	if stats.RecentAttempts[0].UserName != "Bob" {
		t.Fatalf("expected newest attempt first, got %+v", stats.RecentAttempts)
	}
}

func TestInvalidateAnalyticsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/analytics/invalidate?quizId=quiz-1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post invalidate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestExportAnalyticsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	postSubmission(t, server, submitBody("u1")).Body.Close()

	resp := getWithRole(t, server, "/analytics/export?quizId=quiz-1&format=csv", domain.RoleInstructor)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "quiz-quiz-1-analytics.csv") {
		t.Fatalf("unexpected content disposition: %q", cd)
	}

	resp = getWithRole(t, server, "/analytics/export?quizId=quiz-1&format=xml", domain.RoleInstructor)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unsupported format, got %d", resp.StatusCode)
	}

	// default format is json
	resp = getWithRole(t, server, "/analytics/export?quizId=quiz-1", domain.RoleInstructor)
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json default, got %q", ct)
	}
}

func TestPreviewXPEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	var award struct {
		XP int `json:"xp"`
	}
	resp := getWithRole(t, server, "/xp/preview?quizId=quiz-1&score=15&correct=2&total=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &award)
	if award.XP != 120 {
		t.Fatalf("expected 120 xp, got %d", award.XP)
	}

	resp = getWithRole(t, server, "/xp/preview?quizId=quiz-1&score=0&correct=0&total=0", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty submission, got %d", resp.StatusCode)
	}

	resp = getWithRole(t, server, "/xp/preview?quizId=quiz-1&score=abc&correct=0&total=1", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer score, got %d", resp.StatusCode)
	}
}
