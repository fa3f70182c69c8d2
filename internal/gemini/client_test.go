package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testMinutesJSON = `{
	"title": "Sprint planning",
	"date": "2024-01-01",
	"time_range": "10:00 - 10:30",
	"executive_summary": "Planned the sprint.",
	"objective": "Agree on scope.",
	"participants": [{"name": "Ana", "contribution": "Presented the backlog."}],
	"key_points": ["Scope fixed"],
	"action_plan": [{"task": "Write spec", "assignee": "Ana", "due_date": "2024-01-05", "priority": "High", "status": "Pending"}],
	"topics": ["planning"]
}`

func candidateResponse(text string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestSummarizeParsesMinutes(t *testing.T) {
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(candidateResponse(testMinutesJSON)))
	}))
	defer srv.Close()

	c := New("test-key", "test-model", srv.URL)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	m, err := c.Summarize(context.Background(), "hablamos del sprint", start, end)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if m.Title != "Sprint planning" {
		t.Errorf("title = %q", m.Title)
	}
	if len(m.ActionPlan) != 1 || m.ActionPlan[0].Assignee != "Ana" {
		t.Errorf("action plan = %+v", m.ActionPlan)
	}
	if len(m.Participants) != 1 || m.Participants[0].Name != "Ana" {
		t.Errorf("participants = %+v", m.Participants)
	}

	if gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", gotBody.GenerationConfig.ResponseMimeType)
	}
	if gotBody.GenerationConfig.ResponseSchema == nil {
		t.Error("request carries no response schema")
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("contents = %+v", gotBody.Contents)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "2024-01-01") {
		t.Errorf("prompt missing meeting date: %q", prompt)
	}
	if !strings.Contains(prompt, "10:00") || !strings.Contains(prompt, "10:30") {
		t.Errorf("prompt missing time range: %q", prompt)
	}
	if !strings.Contains(prompt, "hablamos del sprint") {
		t.Errorf("prompt missing transcript: %q", prompt)
	}
}

func TestSummarizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("test-key", "test-model", srv.URL)
	_, err := c.Summarize(context.Background(), "texto", time.Now(), time.Now())

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", upstream.Status, http.StatusTooManyRequests)
	}
	if !strings.Contains(upstream.Body, "quota exceeded") {
		t.Errorf("body = %q", upstream.Body)
	}
}

func TestSummarizeMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"no candidates", `{"candidates": []}`},
		{"embedded text not minutes", candidateResponse("I cannot help with that.")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(c.body))
			}))
			defer srv.Close()

			client := New("test-key", "test-model", srv.URL)
			_, err := client.Summarize(context.Background(), "texto", time.Now(), time.Now())

			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Errorf("error = %v, want *MalformedResponseError", err)
			}
		})
	}
}

func TestSummarizeDefaultsModelAndBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(candidateResponse(testMinutesJSON)))
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	if _, err := c.Summarize(context.Background(), "texto", time.Now(), time.Now()); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if want := "/models/" + DefaultModel + ":generateContent"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}
