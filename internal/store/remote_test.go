package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxscholar/voxscholar/internal/model"
)

// fakeAPI mimics the server envelope for the storage endpoints.
type fakeAPI struct {
	mu          sync.Mutex
	lastSession *model.SessionSnapshot
	history     []model.HistoryEntry
	settings    model.Settings
	failWrites  bool
	writeCount  int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/last-session", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			respond(w, f.lastSession)
		case http.MethodPost:
			f.writeCount++
			if f.failWrites {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "INTERNAL_ERROR", "message": "boom"},
				})
				return
			}
			var snap model.SessionSnapshot
			json.NewDecoder(r.Body).Decode(&snap)
			f.lastSession = &snap
			respond(w, map[string]bool{"ok": true})
		case http.MethodDelete:
			f.lastSession = nil
			respond(w, map[string]bool{"ok": true})
		}
	})
	mux.HandleFunc("/api/session-history", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodGet {
			respond(w, f.history)
			return
		}
		json.NewDecoder(r.Body).Decode(&f.history)
		respond(w, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/weak-areas", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []model.WeakArea{})
	})
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodGet {
			respond(w, f.settings)
			return
		}
		// Partial merge: nil request fields keep the stored value.
		var req model.UpdateSettingsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ExamDate != nil {
			f.settings.ExamDate = req.ExamDate
		}
		if req.FocusToday != nil {
			f.settings.FocusToday = req.FocusToday
		}
		if req.CustomSubjects != nil {
			f.settings.CustomSubjects = req.CustomSubjects
		}
		if req.SubjectRenames != nil {
			f.settings.SubjectRenames = req.SubjectRenames
		}
		if req.Voice != nil {
			f.settings.Voice = req.Voice
		}
		respond(w, map[string]bool{"ok": true})
	})
	return mux
}

func newTestRemoteStore(t *testing.T, api *fakeAPI) *RemoteStore {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	s, err := NewRemoteStore(context.Background(), NewClient(srv.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRemoteStore: %v", err)
	}
	return s
}

func TestRemoteStorePrefetch(t *testing.T) {
	api := &fakeAPI{
		lastSession: &model.SessionSnapshot{Topic: "Teaching demo", CurrentIndex: 1, QuestionOrder: []int{1, 0}},
		history:     []model.HistoryEntry{{Topic: "Teaching demo", Completed: true, Date: "2026-08-28"}},
	}
	s := newTestRemoteStore(t, api)
	defer s.Close()

	snap, err := s.LastSession(context.Background())
	if err != nil {
		t.Fatalf("LastSession: %v", err)
	}
	if snap == nil || snap.Topic != "Teaching demo" || snap.CurrentIndex != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	history, _ := s.History(context.Background())
	if len(history) != 1 || history[0].Topic != "Teaching demo" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestRemoteStoreWriteBehind(t *testing.T) {
	api := &fakeAPI{}
	s := newTestRemoteStore(t, api)

	snap := model.SessionSnapshot{Topic: "Policy & ethics", QuestionOrder: []int{0, 1}}
	if err := s.SaveLastSession(context.Background(), snap); err != nil {
		t.Fatalf("SaveLastSession: %v", err)
	}

	// Reads see the new value immediately, before the flush lands.
	got, _ := s.LastSession(context.Background())
	if got == nil || got.Topic != "Policy & ethics" {
		t.Fatalf("cache read = %+v", got)
	}

	select {
	case res := <-s.Results():
		if res.Key != KeyLastSession || res.Err != nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flush result never arrived")
	}

	s.Close()
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.lastSession == nil || api.lastSession.Topic != "Policy & ethics" {
		t.Errorf("server never saw the write: %+v", api.lastSession)
	}
}

func TestRemoteStoreSurfacesWriteFailure(t *testing.T) {
	api := &fakeAPI{failWrites: true}
	s := newTestRemoteStore(t, api)
	defer s.Close()

	if err := s.SaveLastSession(context.Background(), model.SessionSnapshot{Topic: "Clinical case"}); err != nil {
		t.Fatalf("SaveLastSession should not fail synchronously: %v", err)
	}

	select {
	case res := <-s.Results():
		if res.Err == nil {
			t.Fatal("expected failed write result")
		}
		if res.Key != KeyLastSession {
			t.Errorf("result key = %q", res.Key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failure was never surfaced")
	}

	// The cache still serves the optimistic value.
	got, _ := s.LastSession(context.Background())
	if got == nil || got.Topic != "Clinical case" {
		t.Errorf("cache read after failed flush = %+v", got)
	}
}

func TestRemoteStoreSettingsClearReachesServer(t *testing.T) {
	date := "2026-09-15"
	api := &fakeAPI{settings: model.Settings{ExamDate: &date}}
	s := newTestRemoteStore(t, api)

	got, _ := s.Settings(context.Background())
	if got.ExamDate == nil || *got.ExamDate != date {
		t.Fatalf("prefetched settings = %+v", got)
	}

	// The user clears the exam date; the stored value must not survive
	// the server's keep-on-nil merge.
	got.ExamDate = nil
	if err := s.SaveSettings(context.Background(), got); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	select {
	case res := <-s.Results():
		if res.Key != KeySettings || res.Err != nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flush result never arrived")
	}
	s.Close()

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.settings.ExamDate == nil || *api.settings.ExamDate != "" {
		t.Errorf("server kept the cleared date: %+v", api.settings.ExamDate)
	}
}

func TestNormalizeSettings(t *testing.T) {
	empty := ""
	s := normalizeSettings(model.Settings{
		ExamDate:   &empty,
		FocusToday: &model.FocusToday{},
		Voice:      &empty,
	})
	if s.ExamDate != nil || s.FocusToday != nil || s.Voice != nil {
		t.Errorf("cleared fields should read as unset: %+v", s)
	}

	date := "2026-09-15"
	s = normalizeSettings(model.Settings{ExamDate: &date})
	if s.ExamDate == nil || *s.ExamDate != date {
		t.Errorf("set fields must pass through: %+v", s)
	}
}

func TestClientUnauthorizedClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "TOKEN_INVALID", "message": "invalid token"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("stale-token")
	_, err := c.History(context.Background())
	if err != ErrUnauthorized {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if c.getToken() != "" {
		t.Error("token should be cleared after a 401")
	}
}
