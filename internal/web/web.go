// Package web serves the control page and the JSON API that bridge the
// playback state to a browser.
package web

import (
	_ "embed"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/manjira"
)

//go:embed index.html
var IndexHTML []byte

// Controller is the playback state the API drives.
type Controller interface {
	Start() error
	Stop()
	ToggleErr() (manjira.State, error)
	Status() manjira.Status
}

// API exposes a Controller over HTTP.
type API struct {
	ctl    Controller
	extras func() map[string]any
}

// NewAPI creates an API for ctl.
func NewAPI(ctl Controller) *API {
	return &API{ctl: ctl}
}

// SetExtras adds fields to every /api/status response.
func (a *API) SetExtras(fn func() map[string]any) {
	a.extras = fn
}

// Register mounts the page and the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", a.index)
	mux.HandleFunc("/api/toggle", post(a.toggle))
	mux.HandleFunc("/api/start", post(a.start))
	mux.HandleFunc("/api/stop", post(a.stop))
	mux.HandleFunc("/api/status", a.status)
}

func (a *API) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(IndexHTML)
}

func (a *API) toggle(w http.ResponseWriter, r *http.Request) {
	st, err := a.ctl.ToggleErr()
	writeResult(w, st, err)
}

func (a *API) start(w http.ResponseWriter, r *http.Request) {
	err := a.ctl.Start()
	writeResult(w, a.ctl.Status().State, err)
}

func (a *API) stop(w http.ResponseWriter, r *http.Request) {
	a.ctl.Stop()
	writeResult(w, a.ctl.Status().State, nil)
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	st := a.ctl.Status()
	resp := map[string]any{
		"state":            st.State,
		"session":          st.Session,
		"clock_time":       st.ClockTime,
		"next_event_time":  st.NextEventTime,
		"events_submitted": st.Submitted,
		"events_skipped":   st.Skipped,
		"passes":           st.Passes,
	}
	if a.extras != nil {
		for k, v := range a.extras() {
			resp[k] = v
		}
	}
	writeJSON(w, resp)
}

// writeResult reports a bridge call. A failed start is a normal response
// carrying the error, never a server error.
func writeResult(w http.ResponseWriter, st manjira.State, err error) {
	resp := map[string]any{"ok": err == nil, "state": st}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("write api response")
	}
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
