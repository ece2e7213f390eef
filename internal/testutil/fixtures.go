package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with a random username
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: RandomUsername(),
		password: "testpassword123",
	}
}

// RandomUsername returns a fake username that is unique within a test run
func RandomUsername() string {
	name := strings.ToLower(gofakeit.Username())
	return fmt.Sprintf("%s_%s", name, uuid.New().String()[:8])
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// LoginResponse matches the API login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        struct {
		Username string `json:"username"`
		UserID   string `json:"user_id"`
	} `json:"user"`
}

// BuildAndAuthenticate registers and logs in a user through the API and
// returns the user with an access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	creds := map[string]string{
		"username": b.username,
		"password": b.password,
	}

	resp := PostJSON(t, ts.URL("/register"), "", creds)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: unexpected status code: %d", resp.StatusCode)
	}

	resp = PostJSON(t, ts.URL("/login"), "", creds)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status code: %d", resp.StatusCode)
	}

	var login LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	userID, err := uuid.Parse(login.User.UserID)
	if err != nil {
		t.Fatalf("login returned invalid user id %q: %v", login.User.UserID, err)
	}

	return &domain.User{ID: userID, Username: login.User.Username}, login.AccessToken
}

// AddScores inserts scores for user directly, one second apart
func AddScores(t *testing.T, db *gorm.DB, user *domain.User, values ...int) {
	t.Helper()

	base := time.Now().Add(-time.Duration(len(values)) * time.Second)
	for i, v := range values {
		score := &domain.Score{
			ID:          uuid.New(),
			UserID:      user.ID,
			Value:       v,
			SubmittedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(score).Error; err != nil {
			t.Fatalf("failed to create score: %v", err)
		}
	}
}

// PostJSON sends body as JSON, with a bearer token when token is non-empty
func PostJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	return DoJSON(t, http.MethodPost, url, token, body)
}

// DoJSON sends a request with an optional JSON body and bearer token
func DoJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	return resp
}
