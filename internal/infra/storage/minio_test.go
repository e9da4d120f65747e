package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 answers the few S3 calls the archive makes
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	calls        []string
	bodies       map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodHead:
		if !f.bucketExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && strings.Count(strings.Trim(r.URL.Path, "/"), "/") == 0:
		// MakeBucket
		f.bucketExists = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		f.bodies[r.URL.Path] = string(body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeStore(t *testing.T, bucketExists bool) (*Store, *fakeS3, *httptest.Server) {
	t.Helper()
	fake := &fakeS3{bucketExists: bucketExists, bodies: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	store, err := New(context.Background(), endpoint, "us-east-1", "phish-reports", "access", "secret", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store, fake, srv
}

func TestStore_PutReturnsObjectURL(t *testing.T) {
	store, fake, srv := newFakeStore(t, true)

	body := `{"id":"r1","risk_level":"high"}`
	url, err := store.Put(context.Background(), "reports/2026/07/04/r1.json", []byte(body))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if want := srv.URL + "/phish-reports/reports/2026/07/04/r1.json"; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	got, ok := fake.bodies["/phish-reports/reports/2026/07/04/r1.json"]
	if !ok {
		t.Fatalf("object not uploaded, calls = %v", fake.calls)
	}
	// chunked uploads wrap the payload in signature frames
	if !strings.Contains(got, body) {
		t.Errorf("uploaded body = %q", got)
	}
}

func TestStore_NewCreatesMissingBucket(t *testing.T) {
	_, fake, _ := newFakeStore(t, false)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.calls) != 2 || fake.calls[0] != "HEAD /phish-reports/" || fake.calls[1] != "PUT /phish-reports/" {
		t.Errorf("calls = %v", fake.calls)
	}
}

func TestStore_Check(t *testing.T) {
	store, fake, _ := newFakeStore(t, true)
	if err := store.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}

	fake.mu.Lock()
	fake.bucketExists = false
	fake.mu.Unlock()
	if err := store.Check(context.Background()); err == nil || !strings.Contains(err.Error(), "phish-reports") {
		t.Errorf("Check on missing bucket = %v", err)
	}
}
