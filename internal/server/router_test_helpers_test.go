package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hallyulab/musebook/backend/internal/auth"
	"github.com/hallyulab/musebook/backend/internal/muses"
)

const testAccessKey = "test-access-key"

// memoryArchive keeps the durable slot in a map so router tests never touch
// a real database.
type memoryArchive struct {
	mu    sync.Mutex
	slots map[string]string
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{slots: map[string]string{}}
}

func (a *memoryArchive) ReadSnapshot(key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	payload, found := a.slots[key]
	return payload, found, nil
}

func (a *memoryArchive) WriteSnapshot(key, payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots[key] = payload
	return nil
}

func (a *memoryArchive) DeleteSnapshot(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.slots, key)
	return nil
}

type routerIDs struct {
	mu   sync.Mutex
	next int
}

func (r *routerIDs) NewID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return fmt.Sprintf("router-id-%d", r.next), nil
}

type testEnvironment struct {
	handler    http.Handler
	store      *muses.Store
	syncer     *muses.Syncer
	dispatcher *RealtimeDispatcher
}

func newTestEnvironment(testContext *testing.T) *testEnvironment {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	store, err := muses.NewStore(muses.StoreConfig{Archive: newMemoryArchive()})
	if err != nil {
		testContext.Fatalf("failed to build store: %v", err)
	}
	museService, err := muses.NewService(muses.ServiceConfig{Store: store, IDProvider: &routerIDs{}})
	if err != nil {
		testContext.Fatalf("failed to build muse service: %v", err)
	}
	detailService, err := muses.NewDetailService(muses.DetailConfig{
		Store:         store,
		FeedSyncDelay: 5 * time.Millisecond,
	})
	if err != nil {
		testContext.Fatalf("failed to build detail service: %v", err)
	}
	museService.SetDeleteHook(detailService.Close)

	syncer, err := muses.NewSyncer(muses.SyncerConfig{Store: store, Interval: time.Hour})
	if err != nil {
		testContext.Fatalf("failed to build syncer: %v", err)
	}
	testContext.Cleanup(func() { syncer.Stop() })

	dispatcher := NewRealtimeDispatcher()
	issuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("router-test-secret"),
		AccessKey:     testAccessKey,
		Issuer:        "musebook-auth",
		Audience:      "musebook-api",
	})

	handler, err := NewHTTPHandler(Dependencies{
		MuseService:   museService,
		DetailService: detailService,
		Syncer:        syncer,
		TokenManager:  issuer,
		Dispatcher:    dispatcher,
	})
	if err != nil {
		testContext.Fatalf("failed to build http handler: %v", err)
	}

	return &testEnvironment{
		handler:    handler,
		store:      store,
		syncer:     syncer,
		dispatcher: dispatcher,
	}
}

func (environment *testEnvironment) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, http.NoBody)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	recorder := httptest.NewRecorder()
	environment.handler.ServeHTTP(recorder, request)
	return recorder
}

func (environment *testEnvironment) issueToken(testContext *testing.T) string {
	testContext.Helper()
	recorder := environment.do(http.MethodPost, "/session", `{"access_key":"`+testAccessKey+`"}`, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected session issuance, got status %d: %s", recorder.Code, recorder.Body.String())
	}
	var response sessionResponsePayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		testContext.Fatalf("failed to decode session response: %v", err)
	}
	if response.AccessToken == "" {
		testContext.Fatal("expected a non-empty access token")
	}
	return response.AccessToken
}

func authorized(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func testingContext(testContext *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	testContext.Cleanup(cancel)
	return ctx
}
