package server

import (
	"net/http"
	"testing"
)

func TestSessionEndpointIssuesToken(testContext *testing.T) {
	environment := newTestEnvironment(testContext)
	token := environment.issueToken(testContext)
	if token == "" {
		testContext.Fatal("expected a session token")
	}
}

func TestSessionEndpointRejectsWrongKey(testContext *testing.T) {
	environment := newTestEnvironment(testContext)

	recorder := environment.do(http.MethodPost, "/session", `{"access_key":"wrong"}`, nil)
	if recorder.Code != http.StatusUnauthorized {
		testContext.Fatalf("expected status %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
	expected := `{"error":"unauthorized"}`
	if recorder.Body.String() != expected {
		testContext.Fatalf("unexpected response body: %s", recorder.Body.String())
	}
}

func TestSessionEndpointRejectsBlankKey(testContext *testing.T) {
	environment := newTestEnvironment(testContext)

	recorder := environment.do(http.MethodPost, "/session", `{"access_key":"  "}`, nil)
	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestProtectedRoutesRequireBearerToken(testContext *testing.T) {
	environment := newTestEnvironment(testContext)

	recorder := environment.do(http.MethodPost, "/muses", `{"name":"X"}`, nil)
	if recorder.Code != http.StatusUnauthorized {
		testContext.Fatalf("expected status %d without a header, got %d", http.StatusUnauthorized, recorder.Code)
	}

	recorder = environment.do(http.MethodPost, "/muses", `{"name":"X"}`, map[string]string{"Authorization": "Bearer not-a-token"})
	if recorder.Code != http.StatusUnauthorized {
		testContext.Fatalf("expected status %d for a bad token, got %d", http.StatusUnauthorized, recorder.Code)
	}

	recorder = environment.do(http.MethodPost, "/muses", `{"name":"X"}`, map[string]string{"Authorization": "Token abc"})
	if recorder.Code != http.StatusUnauthorized {
		testContext.Fatalf("expected status %d for a non-bearer scheme, got %d", http.StatusUnauthorized, recorder.Code)
	}
}

func TestOpenRoutesSkipAuthorization(testContext *testing.T) {
	environment := newTestEnvironment(testContext)

	for _, path := range []string{"/muses", "/sync/status"} {
		recorder := environment.do(http.MethodGet, path, "", nil)
		if recorder.Code != http.StatusOK {
			testContext.Fatalf("expected %s to be open, got status %d", path, recorder.Code)
		}
	}
}
