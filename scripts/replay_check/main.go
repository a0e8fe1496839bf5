// Command replay_check verifies that schedule generation is reproducible: it
// runs the generate endpoint several times with the same seed and diffs the
// outcomes. Any divergence between runs is a regression in the engine's
// determinism contract and exits non-zero.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type generatePayload struct {
	TeamID *string `json:"teamId,omitempty"`
	Days   []int   `json:"days,omitempty"`
	Seed   int64   `json:"seed"`
}

type runOutcome struct {
	Schedule    []map[string]interface{} `json:"schedule"`
	Generations int                      `json:"generations"`
	BestFitness float64                  `json:"bestFitness"`
	Success     bool                     `json:"success"`
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func main() {
	var (
		base     string
		email    string
		password string
		teamID   string
		daysRaw  string
		seed     int64
		runs     int
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "", "login email")
	flag.StringVar(&password, "password", "", "login password")
	flag.StringVar(&teamID, "team", "", "optional team id to scope the run")
	flag.StringVar(&daysRaw, "days", "1,2,3,4,5", "comma-separated ISO weekdays")
	flag.Int64Var(&seed, "seed", 42, "engine seed shared by every run")
	flag.IntVar(&runs, "runs", 3, "number of generations to compare")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "HTTP client timeout")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}
	days, err := parseDays(daysRaw)
	if err != nil {
		log.Fatalf("invalid -days: %v", err)
	}
	if runs < 2 {
		runs = 2
	}

	client := &http.Client{Timeout: timeout}
	token, err := login(client, base, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	payload := generatePayload{Days: days, Seed: seed}
	if teamID != "" {
		payload.TeamID = &teamID
	}

	var reference *runOutcome
	diverged := false
	for i := 0; i < runs; i++ {
		outcome, elapsed, err := generate(client, base, token, payload)
		if err != nil {
			log.Fatalf("run %d failed: %v", i+1, err)
		}
		fmt.Printf("run %d: success=%t generations=%d fitness=%.4f entries=%d (%s)\n",
			i+1, outcome.Success, outcome.Generations, outcome.BestFitness, len(outcome.Schedule), elapsed)

		if reference == nil {
			reference = outcome
			continue
		}
		if !outcomesEqual(reference, outcome) {
			diverged = true
			fmt.Printf("run %d diverged from run 1\n", i+1)
		}
	}

	if diverged {
		fmt.Println("result: NOT REPRODUCIBLE")
		os.Exit(1)
	}
	fmt.Printf("result: %d identical runs for seed %d\n", runs, seed)
}

func parseDays(raw string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if day < 1 || day > 7 {
			return nil, fmt.Errorf("day %d out of range", day)
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no days given")
	}
	return days, nil
}

func login(client *http.Client, base, email, password string) (string, error) {
	data, err := postJSON(client, base+"/api/v1/auth/login", "", loginPayload{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("no access token in login response")
	}
	return resp.AccessToken, nil
}

func generate(client *http.Client, base, token string, payload generatePayload) (*runOutcome, time.Duration, error) {
	start := time.Now()
	data, err := postJSON(client, base+"/api/v1/schedules/generate", token, payload)
	if err != nil {
		return nil, 0, err
	}
	var outcome runOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, 0, err
	}
	return &outcome, time.Since(start), nil
}

func postJSON(client *http.Client, url, token string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %v", resp.StatusCode, env.Error)
	}
	return env.Data, nil
}

func outcomesEqual(a, b *runOutcome) bool {
	if a.Success != b.Success || a.Generations != b.Generations || a.BestFitness != b.BestFitness {
		return false
	}
	return reflect.DeepEqual(a.Schedule, b.Schedule)
}
