package health

import (
	"net/http"
	"slices"
	"strings"
	"sync"
)

// The daemon is ready when every expected worker (grpc, feed,
// broadcaster) has reported in. A worker that exits flips back to not
// ready, so /readyz names the part of the pipeline that stopped.
var (
	mu      sync.RWMutex
	workers = map[string]bool{}
)

// Expect registers a worker as not ready yet.
func Expect(name string) {
	mu.Lock()
	defer mu.Unlock()
	workers[name] = false
}

func SetReady(name string, v bool) {
	mu.Lock()
	defer mu.Unlock()
	workers[name] = v
}

// Ready is false until at least one worker is expected and all are up.
func Ready() bool {
	return len(pending()) == 0 && expected() > 0
}

// Reset forgets every worker.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(workers)
}

func expected() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(workers)
}

func pending() []string {
	mu.RLock()
	defer mu.RUnlock()
	var out []string
	for name, ok := range workers {
		if !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Healthz is a liveness probe: the process is up and serving HTTP.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz answers 200 once the quote API and the enabled jobs run, and
// 503 with the names of the workers that are not up otherwise.
func Readyz(w http.ResponseWriter, r *http.Request) {
	if Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	down := pending()
	if len(down) == 0 {
		http.Error(w, "not ready: starting", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "not ready: "+strings.Join(down, ","), http.StatusServiceUnavailable)
}
