package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client. The timeout covers a full
// generation round trip.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type NewSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context"`
}

type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	SessionID string `json:"session_id"`
	Messages  []Turn `json:"messages"`
}

type Health struct {
	Status   string `json:"status"`
	GeminiAI string `json:"gemini_ai"`
	Provider string `json:"provider"`
	Database string `json:"database"`
}

// RegisterAndLogin creates an account and returns its access token
func (c *APIClient) RegisterAndLogin(username, password string) (*User, string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	if err := c.do(http.MethodPost, "/register", body, "", http.StatusCreated, nil); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	var login LoginResponse
	if err := c.do(http.MethodPost, "/login", body, "", http.StatusOK, &login); err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	return &login.User, login.AccessToken, nil
}

// SubmitScore records one quiz result for the token's user
func (c *APIClient) SubmitScore(token string, score int) error {
	return c.do(http.MethodPost, "/scores", map[string]int{"score": score}, token, http.StatusCreated, nil)
}

func (c *APIClient) Leaderboard() ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := c.do(http.MethodGet, "/leaderboard", nil, "", http.StatusOK, &entries)
	return entries, err
}

func (c *APIClient) NewSession() (*NewSessionResponse, error) {
	var result NewSessionResponse
	if err := c.do(http.MethodPost, "/chatbot/session/new", nil, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Chat(sessionID, message string, context map[string]any) (*ChatResponse, error) {
	body := map[string]any{
		"message":    message,
		"session_id": sessionID,
	}
	if len(context) > 0 {
		body["context"] = context
	}

	var result ChatResponse
	if err := c.do(http.MethodPost, "/chatbot/chat", body, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Session(sessionID string) (*Session, error) {
	var result Session
	if err := c.do(http.MethodGet, "/chatbot/session/"+sessionID, nil, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Health() (*Health, error) {
	var result Health
	if err := c.do(http.MethodGet, "/health", nil, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HTTP helpers

// do sends a request, checks the status and decodes the body into out when
// out is non-nil.
func (c *APIClient) do(method, path string, body any, token string, wantStatus int, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
