// End-to-end smoke run against a live API and its Redis event stream.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL       = getenv("API_URL", "http://localhost:8080/v1")
	redisURL      = getenv("REDIS_URL", "redis://localhost:6379/0")
	operatorToken = os.Getenv("OPERATOR_TOKEN")
	voterToken    = os.Getenv("VOTER_TOKEN")
)

const eventStream = "esir.events"

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	if operatorToken == "" || voterToken == "" {
		log.Fatal("OPERATOR_TOKEN and VOTER_TOKEN are required (see `esir token`)")
	}
	ctx := context.Background()
	rdb := mustRedis()
	defer rdb.Close()

	sessionID := createSession()
	defer deleteSession(sessionID)
	itemID := addItem(sessionID)
	pollID := createPoll(itemID)

	castVote(pollID, http.StatusCreated)
	castVote(pollID, http.StatusConflict)
	checkEvent(ctx, rdb, pollID)

	togglePoll(pollID)
	checkResults(pollID)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- sessions

func createSession() uint64 {
	var resp struct{ ID uint64 }
	doAuth(operatorToken, "POST", "/sessions", map[string]any{
		"name":        "smoke " + uuid.NewString(),
		"scheduledAt": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, &resp, http.StatusCreated)
	return resp.ID
}

func deleteSession(id uint64) {
	doAuth(operatorToken, "DELETE", fmt.Sprintf("/sessions/%d", id), nil, nil, http.StatusNoContent)
}

func addItem(sessionID uint64) uint64 {
	var resp struct{ ID uint64 }
	doAuth(operatorToken, "POST", fmt.Sprintf("/sessions/%d/items", sessionID), map[string]any{
		"ordinal": 1,
		"title":   "Smoke resolution",
	}, &resp, http.StatusCreated)
	return resp.ID
}

// ----------------------------- polls

func createPoll(itemID uint64) uint64 {
	var resp struct{ ID uint64 }
	doAuth(operatorToken, "POST", fmt.Sprintf("/items/%d/poll", itemID), map[string]any{
		"name":       "Smoke poll",
		"visibility": "secret",
		"open":       true,
	}, &resp, http.StatusCreated)
	return resp.ID
}

func castVote(pollID uint64, want int) {
	doAuth(voterToken, "POST", fmt.Sprintf("/polls/%d/votes", pollID), map[string]any{
		"choice": "for",
	}, nil, want)
}

func togglePoll(pollID uint64) {
	doAuth(operatorToken, "POST", fmt.Sprintf("/polls/%d/toggle", pollID), nil, nil, http.StatusOK)
}

func checkResults(pollID uint64) {
	var res struct {
		Open     bool
		Cast     int
		Withheld bool
		For      *int
	}
	doJSON("GET", fmt.Sprintf("/public/polls/%d/results", pollID), nil, &res, http.StatusOK)
	if res.Open || res.Withheld || res.For == nil || *res.For != 1 {
		log.Fatalf("results: unexpected %+v", res)
	}
}

// ----------------------------- events

func checkEvent(ctx context.Context, rdb *redis.Client, pollID uint64) {
	msgs, err := rdb.XRevRangeN(ctx, eventStream, "+", "-", 20).Result()
	if err != nil {
		log.Fatalf("redis xrevrange: %v", err)
	}
	want := fmt.Sprint(pollID)
	for _, m := range msgs {
		if m.Values["type"] == "vote.cast" && m.Values["poll_id"] == want {
			if _, leaked := m.Values["voter_id"]; leaked {
				log.Fatal("events: vote.cast carries a voter id")
			}
			return
		}
	}
	log.Fatal("events: vote.cast not found in stream")
}

// ----------------------------- helpers

func mustRedis() *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	return redis.NewClient(opt)
}

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
