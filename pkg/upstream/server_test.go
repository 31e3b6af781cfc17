package upstream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func newTestServer() *httptest.Server {
	router := mux.NewRouter()
	NewHandler(nil).RegisterRoutes(router)
	return httptest.NewServer(router)
}

func TestStatus_AnswersRequestedCode(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/status/503")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 503 {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status_text"] != "Service Unavailable" {
		t.Errorf("Expected status text in body, got %v", body)
	}
}

func TestStatus_RejectsInvalidCode(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/status/999")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range code, got %d", resp.StatusCode)
	}
}

func TestDelay_AnswersAfterPause(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	start := time.Now()
	resp, err := http.Get(server.URL + "/delay/50")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Answered too early: %v", elapsed)
	}
}

func TestEcho_ReflectsRequest(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Post(server.URL+"/echo?x=1", "application/json", strings.NewReader(`{"a":1}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["method"] != "POST" || body["query"] != "x=1" || body["body"] != `{"a":1}` {
		t.Errorf("Echo mismatch: %v", body)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
