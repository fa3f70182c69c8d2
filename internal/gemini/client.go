// Package gemini turns a meeting transcript into structured minutes via the
// generateContent API, using structured-output mode to pin the response to a
// fixed schema.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the hosted generateContent endpoint prefix.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is used when the configuration names none.
	DefaultModel = "gemini-2.5-flash"
)

// UpstreamError is a non-2xx reply from the API. The body is kept verbatim
// for the log.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("summarization request failed (HTTP %d): %s", e.Status, e.Body)
}

// MalformedResponseError is a 2xx reply whose body does not carry minutes in
// the requested shape.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("summarization response not parseable: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Client calls the text-generation API. Zero values for Model, BaseURL and
// HTTPClient fall back to defaults; APIKey has no default.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client with a 60-second request timeout.
func New(apiKey, model, baseURL string) *Client {
	return &Client{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
	ResponseSchema   any    `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Summarize sends the transcript plus the meeting's date and time-of-day
// range and returns the parsed minutes. The transcript's own language is
// preserved; ambiguous passages come back flagged inline by the model, not
// as errors.
func (c *Client) Summarize(ctx context.Context, transcript string, start, end time.Time) (*Minutes, error) {
	prompt := buildPrompt(transcript, start, end)

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   minutesSchema,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, model, c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &MalformedResponseError{Err: fmt.Errorf("response has no candidates")}
	}

	var minutes Minutes
	if err := json.Unmarshal([]byte(gr.Candidates[0].Content.Parts[0].Text), &minutes); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	return &minutes, nil
}

// buildPrompt embeds the meeting's calendar context so the model fills the
// date and time_range fields instead of guessing them from the transcript.
func buildPrompt(transcript string, start, end time.Time) string {
	return fmt.Sprintf(`You are an expert assistant that writes meeting minutes from a transcript.
Always answer with a single valid JSON object strictly matching the provided schema, written in the transcript's own language.
The meeting date is %s. It started at %s and ended at %s; use these for the 'date' and 'time_range' fields.
Correct obvious transcription errors but preserve critical figures, dates and literal quotes.
If a point in the transcript is ambiguous, flag it inline with "TODO: verify".
The transcript is:
%s`,
		start.UTC().Format("2006-01-02"),
		start.UTC().Format("15:04"),
		end.UTC().Format("15:04"),
		transcript)
}
