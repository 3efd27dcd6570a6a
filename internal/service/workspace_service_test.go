package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/auth"
	"english_edu_dashboard/internal/config"
	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/pkg/monitoring"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
)

type fakeLearningBackend struct {
	limitMinutes int
	submits      int32
	failSubmit   atomic.Bool
}

func (b *fakeLearningBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/exam/mock/start", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, model.MockExam{
			MockID:           "m1",
			ExamType:         "cet4",
			TimeLimitMinutes: b.limitMinutes,
			Sections: []model.Section{
				{SectionType: "choice", Part: 1, Questions: []model.Question{
					{ID: 7, Options: []string{"A. cat", "B. dog", "C. bird", "D. fish"}},
				}},
			},
		})
	})
	mux.HandleFunc("/exam/mock/submit", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.submits, 1)
		if b.failSubmit.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"grading unavailable"}`))
			return
		}
		writeJSON(w, map[string]interface{}{"mock_id": "m1", "total_score": 60, "max_score": 100})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour))},
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newWorkspaces(t *testing.T, b *fakeLearningBackend, cfg config.ExamConfig) (*WorkspaceService, *auth.MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	tokens := auth.NewMemoryTokenStore()
	client := apiclient.New(config.BackendConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
	s := NewWorkspaceService(cfg, tokens, client)
	t.Cleanup(s.Shutdown)
	return s, tokens
}

func openWorkspace(t *testing.T, s *WorkspaceService, userID uint) *Workspace {
	t.Helper()
	ctx := context.Background()
	sid, _, err := s.OpenSession(ctx, signToken(t, userID))
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	ws, err := s.Get(ctx, sid)
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	return ws
}

func counterValue(t *testing.T, trigger, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	if err := monitoring.MockSubmissions.WithLabelValues(trigger, outcome).Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestSweepKeepsWorkspaceWithExamInProgress(t *testing.T) {
	b := &fakeLearningBackend{limitMinutes: 30}
	s, _ := newWorkspaces(t, b, config.ExamConfig{TickInterval: time.Hour, WorkspaceIdleTTL: time.Hour})

	idle := openWorkspace(t, s, 1)
	busy := openWorkspace(t, s, 2)
	if _, err := busy.Exam.Start(context.Background(), "cet4"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := s.Sweep(); got != 0 {
		t.Fatalf("fresh workspaces evicted: %d", got)
	}

	s.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	if got := s.Sweep(); got != 1 {
		t.Fatalf("evicted = %d, want 1", got)
	}
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
	if _, ok := s.workspaces[busy.SessionID]; !ok {
		t.Error("workspace with a running exam must be kept")
	}
	if _, ok := s.workspaces[idle.SessionID]; ok {
		t.Error("idle workspace should be evicted")
	}
	if busy.Exam.Phase() != exam.PhaseInExam {
		t.Errorf("phase = %s", busy.Exam.Phase())
	}
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	s, _ := newWorkspaces(t, &fakeLearningBackend{}, config.ExamConfig{TickInterval: time.Hour})
	openWorkspace(t, s, 1)
	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if got := s.Sweep(); got != 0 {
		t.Errorf("evicted = %d with no TTL", got)
	}
}

func TestCloseSessionStopsExamAndDeletesToken(t *testing.T) {
	b := &fakeLearningBackend{limitMinutes: 30}
	s, tokens := newWorkspaces(t, b, config.ExamConfig{TickInterval: time.Hour})
	ctx := context.Background()

	ws := openWorkspace(t, s, 5)
	if _, err := ws.Exam.Start(ctx, "cet4"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.CloseSession(ctx, ws.SessionID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := tokens.Load(ctx, ws.SessionID); !errors.Is(err, auth.ErrTokenNotFound) {
		t.Errorf("token still stored: %v", err)
	}
	if ws.Exam.Phase() != exam.PhaseIdle || ws.Exam.Remaining() != 0 {
		t.Errorf("exam not stopped: %s/%d", ws.Exam.Phase(), ws.Exam.Remaining())
	}
	if _, err := ws.Exam.Start(ctx, "cet4"); !errors.Is(err, exam.ErrSessionClosed) {
		t.Errorf("closed session restarted: %v", err)
	}
	if _, err := s.Get(ctx, ws.SessionID); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("get after close = %v, want ErrUnknownSession", err)
	}
	if s.Count() != 0 {
		t.Errorf("count = %d", s.Count())
	}
}

func TestApplyExamConfigTurnsOffAutoSubmit(t *testing.T) {
	b := &fakeLearningBackend{limitMinutes: 1}
	s, _ := newWorkspaces(t, b, config.ExamConfig{AutoSubmitOnExpiry: true, TickInterval: time.Millisecond})

	ws := openWorkspace(t, s, 3)
	s.ApplyExamConfig(config.ExamConfig{AutoSubmitOnExpiry: false, TickInterval: time.Millisecond})
	if s.cfg.AutoSubmitOnExpiry {
		t.Fatal("config not stored")
	}

	if _, err := ws.Exam.Start(context.Background(), "cet4"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := ws.Exam.SelectOption(7, "B. dog"); err != nil {
		t.Fatalf("select: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for ws.Exam.Remaining() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("countdown stuck at %d", ws.Exam.Remaining())
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if ws.Exam.Phase() != exam.PhaseInExam {
		t.Errorf("phase = %s, want in_exam without auto submit", ws.Exam.Phase())
	}
	if got := atomic.LoadInt32(&b.submits); got != 0 {
		t.Errorf("backend saw %d submits", got)
	}
}

func TestTimerSubmitFailureIsCounted(t *testing.T) {
	b := &fakeLearningBackend{limitMinutes: 30}
	b.failSubmit.Store(true)
	s, _ := newWorkspaces(t, b, config.ExamConfig{TickInterval: time.Hour})
	exams := NewExamService(nil, s)

	ws := openWorkspace(t, s, 9)
	if _, err := ws.Exam.Start(context.Background(), "cet4"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := ws.Exam.SelectOption(7, "A. cat"); err != nil {
		t.Fatalf("select: %v", err)
	}

	timerBefore := counterValue(t, string(exam.TriggerTimer), "failed")
	navBefore := counterValue(t, string(exam.TriggerNavBar), "failed")

	if _, err := ws.Exam.Finish(context.Background(), exam.TriggerTimer); err == nil {
		t.Fatal("expected timer submit error")
	}
	if got := counterValue(t, string(exam.TriggerTimer), "failed") - timerBefore; got != 1 {
		t.Errorf("timer failures counted = %v, want 1", got)
	}

	// 手动交卷失败只计一次
	if _, err := exams.Submit(context.Background(), ws, exam.TriggerNavBar); err == nil {
		t.Fatal("expected manual submit error")
	}
	if got := counterValue(t, string(exam.TriggerNavBar), "failed") - navBefore; got != 1 {
		t.Errorf("nav bar failures counted = %v, want 1", got)
	}
	if got := atomic.LoadInt32(&b.submits); got != 2 {
		t.Errorf("backend saw %d submits, want 2", got)
	}
}

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestExamHubStreamsSnapshotThenEvents(t *testing.T) {
	b := &fakeLearningBackend{limitMinutes: 30}
	s, _ := newWorkspaces(t, b, config.ExamConfig{TickInterval: time.Hour})
	ws := openWorkspace(t, s, 4)

	hub := NewExamHub()
	t.Cleanup(hub.Stop)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, ws)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readFrame(t, conn)
	if first.Type != MsgSnapshot {
		t.Fatalf("first frame = %s, want %s", first.Type, MsgSnapshot)
	}
	var v exam.View
	if err := json.Unmarshal(first.Data, &v); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if v.Phase != exam.PhaseIdle {
		t.Errorf("snapshot phase = %s", v.Phase)
	}
	if hub.Count() != 1 {
		t.Errorf("hub count = %d", hub.Count())
	}

	if _, err := ws.Exam.Start(context.Background(), "cet4"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for {
		f := readFrame(t, conn)
		if f.Type != MsgEvent {
			t.Fatalf("unexpected frame %s", f.Type)
		}
		var ev exam.Event
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.Type == exam.EventPhase && ev.Phase == exam.PhaseInExam {
			if ev.Remaining != 30*60 {
				t.Errorf("remaining = %d", ev.Remaining)
			}
			break
		}
	}

	if err := conn.WriteJSON(WSMessage{Type: MsgSnapshot}); err != nil {
		t.Fatalf("request snapshot: %v", err)
	}
	for {
		f := readFrame(t, conn)
		if f.Type != MsgSnapshot {
			continue
		}
		var again exam.View
		json.Unmarshal(f.Data, &again)
		if again.Phase != exam.PhaseInExam || again.MockID != "m1" {
			t.Errorf("snapshot after start = %+v", again)
		}
		break
	}
}
