package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

var featurePattern = regexp.MustCompile(`(node|way|relation)\((\d+)\)`)

// FakeOSM is an in-process stand-in for Nominatim and the Overpass API.
// Bodies are raw JSON so tests control the exact wire format.
type FakeOSM struct {
	server *httptest.Server

	mu sync.Mutex
	// Search maps a lowercased /search query to a JSON array body.
	Search map[string]string
	// Reverse is the /reverse body; empty means "Unable to geocode".
	Reverse string
	// Around is the JSON array of elements returned for around: queries.
	Around string
	// Features maps "type/ref" to a single element's JSON.
	Features map[string]string
	// Status, when non-zero, is returned by every endpoint instead of data.
	Status int

	NominatimCalls atomic.Int32
	OverpassCalls  atomic.Int32
	LastUserAgent  atomic.Value
}

// NewFakeOSM starts a fake upstream that is closed with the test.
func NewFakeOSM(t *testing.T) *FakeOSM {
	t.Helper()
	f := &FakeOSM{
		Search:   map[string]string{},
		Features: map[string]string{},
		Around:   "[]",
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// NominatimURL is the base URL to configure the client with.
func (f *FakeOSM) NominatimURL() string {
	return f.server.URL
}

// OverpassURL is the interpreter URL to configure the client with.
func (f *FakeOSM) OverpassURL() string {
	return f.server.URL + "/api/interpreter"
}

// Close stops the server early, to simulate an outage.
func (f *FakeOSM) Close() {
	f.server.Close()
}

// SetStatus makes every endpoint answer with status.
func (f *FakeOSM) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Status = status
}

func (f *FakeOSM) handle(w http.ResponseWriter, r *http.Request) {
	f.LastUserAgent.Store(r.Header.Get("User-Agent"))

	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/api/interpreter" {
		f.OverpassCalls.Add(1)
	} else {
		f.NominatimCalls.Add(1)
	}

	if f.Status != 0 {
		w.WriteHeader(f.Status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/search":
		body, ok := f.Search[strings.ToLower(r.URL.Query().Get("q"))]
		if !ok {
			body = "[]"
		}
		fmt.Fprint(w, body)
	case "/reverse":
		if f.Reverse == "" {
			fmt.Fprint(w, `{"error":"Unable to geocode"}`)
			return
		}
		fmt.Fprint(w, f.Reverse)
	case "/api/interpreter":
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ql := r.PostForm.Get("data")
		if strings.Contains(ql, "around:") {
			fmt.Fprintf(w, `{"elements":%s}`, f.Around)
			return
		}
		var found []string
		for _, m := range featurePattern.FindAllStringSubmatch(ql, -1) {
			if e, ok := f.Features[m[1]+"/"+m[2]]; ok {
				found = append(found, e)
			}
		}
		fmt.Fprintf(w, `{"elements":[%s]}`, strings.Join(found, ","))
	default:
		http.NotFound(w, r)
	}
}
