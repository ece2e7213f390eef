package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = strings.TrimRight(envURL, "/")
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		seedCmd(apiURL, args)
	case "chat":
		chatCmd(apiURL, args)
	case "health":
		healthCmd(apiURL)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`JumBah Simulator - Development tool for exercising the travel API

USAGE:
  simulator <command> [options]

COMMANDS:
  seed      Register fake users, submit quiz scores and print the leaderboard
  chat      Open a chat session, send messages and print the transcript
  health    Print the service health report
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8000)

EXAMPLES:
  # Create 12 users with 3 quiz attempts each
  simulator seed --count=12 --scores=3

  # Ask two questions in one session
  simulator chat "Tell me about Mount Kinabalu" "What should I pack?"

  # Carry trip context into the session
  simulator chat --budget=low --days=3 "Plan my weekend"`)
}

func seedCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	count := fs.Int("count", 10, "Number of fake users to create")
	scores := fs.Int("scores", 3, "Quiz attempts per user")
	seed := fs.Uint64("seed", 0, "Random seed for reproducible names (0 = random)")
	fs.Parse(args)

	if *count < 1 || *scores < 0 {
		fmt.Println("Error: --count must be positive and --scores must not be negative")
		os.Exit(1)
	}

	faker := gofakeit.New(*seed)
	client := NewAPIClient(apiURL)

	fmt.Println("=== JumBah Simulator: Seed ===")
	fmt.Println()

	created := 0
	for i := 0; i < *count; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(faker.Username()), faker.Number(100, 999))
		fmt.Printf("  [%d/%d] %s... ", i+1, *count, username)

		user, token, err := client.RegisterAndLogin(username, faker.Password(true, true, true, false, false, 12))
		if err != nil {
			fmt.Printf("FAILED\n    Error: %v\n", err)
			continue
		}

		var submitted []int
		for j := 0; j < *scores; j++ {
			score := faker.Number(0, 100)
			if err := client.SubmitScore(token, score); err != nil {
				fmt.Printf("\n    Warning: score %d rejected: %v", score, err)
				continue
			}
			submitted = append(submitted, score)
		}
		fmt.Printf("OK (id: %s, scores: %v)\n", user.UserID, submitted)
		created++
	}

	fmt.Println()
	fmt.Printf("Created %d of %d users\n", created, *count)

	entries, err := client.Leaderboard()
	if err != nil {
		fmt.Printf("Failed to fetch leaderboard: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Leaderboard:")
	for i, e := range entries {
		fmt.Printf("  %2d. %-30s %3d\n", i+1, e.Username, e.Score)
	}
}

func chatCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	sessionID := fs.String("session", "", "Continue an existing session")
	budget := fs.String("budget", "", "Budget to store in the session context")
	days := fs.Int("days", 0, "Trip length to store in the session context")
	fs.Parse(args)

	messages := fs.Args()
	if len(messages) == 0 {
		messages = []string{"Tell me about Mount Kinabalu"}
	}

	context := map[string]any{}
	if *budget != "" {
		context["budget"] = *budget
	}
	if *days > 0 {
		context["days"] = *days
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== JumBah Simulator: Chat ===")
	fmt.Println()

	if *sessionID == "" {
		session, err := client.NewSession()
		if err != nil {
			fmt.Printf("Failed to create session: %v\n", err)
			os.Exit(1)
		}
		*sessionID = session.SessionID
		fmt.Printf("Session %s\n", session.SessionID)
		fmt.Printf("Assistant: %s\n\n", session.Message)
	}

	for i, msg := range messages {
		fmt.Printf("You: %s\n", msg)

		// context only needs to be sent once; the server keeps it
		var turnContext map[string]any
		if i == 0 {
			turnContext = context
		}

		resp, err := client.Chat(*sessionID, msg, turnContext)
		if err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		*sessionID = resp.SessionID
		fmt.Printf("Assistant: %s\n\n", resp.Response)
	}

	session, err := client.Session(*sessionID)
	if err != nil {
		fmt.Printf("Failed to fetch session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Session %s now holds %d messages\n", session.SessionID, len(session.Messages))
}

func healthCmd(apiURL string) {
	health, err := NewAPIClient(apiURL).Health()
	if err != nil {
		fmt.Printf("Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("status:    %s\n", health.Status)
	fmt.Printf("provider:  %s (%s)\n", health.Provider, health.GeminiAI)
	fmt.Printf("database:  %s\n", health.Database)
}
