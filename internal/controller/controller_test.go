package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/auth"
	"english_edu_dashboard/internal/config"
	"english_edu_dashboard/internal/middleware"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/util"
	"english_edu_dashboard/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type testEnv struct {
	router     *gin.Engine
	workspaces *service.WorkspaceService
	exams      *service.ExamService
	submits    *int32
}

func signToken(t *testing.T, userID uint, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:           userID,
		Email:            "learner@example.com",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func fakeBackend(submits *int32, failSubmit *atomic.Bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/exam/mock/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"not signed in"}`))
			return
		}
		writeJSON(w, model.MockExam{
			MockID:           "m1",
			ExamType:         "cet4",
			TimeLimitMinutes: 30,
			Sections: []model.Section{
				{SectionType: "choice", Part: 1, Title: "Listening", Questions: []model.Question{
					{ID: 7, Content: "Which animal?", Options: []string{"A. cat", "B. dog", "C. bird", "D. fish"}},
				}},
				{SectionType: "writing", Part: 2, Title: "Writing", Questions: []model.Question{
					{ID: 20, Content: "Describe your town"},
				}},
			},
		})
	})
	mux.HandleFunc("/exam/mock/submit", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(submits, 1)
		if failSubmit != nil && failSubmit.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"grading unavailable"}`))
			return
		}
		var req model.SubmitRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, map[string]interface{}{"mock_id": req.MockID, "total_score": 88, "max_score": 100, "cefr_level": "B2"})
	})
	mux.HandleFunc("/quests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []model.Quest{{ID: 3, Title: "Read 3 stories", Claimable: true, RewardXP: 50}})
	})
	mux.HandleFunc("/quests/3/claim", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, model.RewardResult{XPGained: 50, TotalXP: 1050})
	})
	mux.HandleFunc("/xp/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, model.XPSummary{TotalXP: 1000, Level: 4})
	})
	var progressCalls int32
	mux.HandleFunc("/progress/overview", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&progressCalls, 1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"progress unavailable"}`))
			return
		}
		writeJSON(w, model.ProgressOverview{CEFRLevel: "B1", StreakDays: 6})
	})
	mux.HandleFunc("/clinic/essays", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, model.EssayFeedback{ID: "e1", Status: "queued"})
	})
	return mux
}

func newTestEnv(t *testing.T, failSubmit *atomic.Bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var submits int32
	backend := httptest.NewServer(fakeBackend(&submits, failSubmit))
	t.Cleanup(backend.Close)

	client := apiclient.New(config.BackendConfig{BaseURL: backend.URL, Timeout: 2 * time.Second}, nil)
	workspaces := service.NewWorkspaceService(config.ExamConfig{AutoSubmitOnExpiry: true, TickInterval: time.Hour}, auth.NewMemoryTokenStore(), client)
	t.Cleanup(workspaces.Shutdown)

	archive := service.NewArchiveService(&service.LocalStorageProvider{Root: t.TempDir()}, nil)
	exams := service.NewExamService(archive, workspaces)
	t.Cleanup(exams.Wait)
	hub := service.NewExamHub()

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	r := gin.New()
	r.HTMLRender = renderer
	sessions := NewSessionController(workspaces, false)
	examCtl := NewExamController(exams, hub)
	game := NewGameController()
	coaching := NewCoachingController()

	r.POST("/api/session", sessions.OpenSession)
	api := r.Group("/api", middleware.SessionMiddleware(workspaces))
	api.GET("/session", sessions.Me)
	api.DELETE("/session", sessions.CloseSession)
	api.GET("/exam/mock", examCtl.GetMock)
	api.POST("/exam/mock/start", examCtl.StartMock)
	api.POST("/exam/mock/answers", examCtl.SetAnswer)
	api.POST("/exam/mock/page", examCtl.GoToPage)
	api.POST("/exam/mock/jump", examCtl.JumpToQuestion)
	api.POST("/exam/mock/submit", examCtl.Submit)
	api.GET("/exam/mock/archive/:id", examCtl.Archived)
	api.GET("/quests", game.Quests)
	api.POST("/quests/:id/claim", game.ClaimQuest)
	api.GET("/xp", game.XPSummary)
	api.POST("/clinic/essays", coaching.SubmitEssay)
	api.GET("/progress", coaching.Progress)
	r.GET("/exam", middleware.SessionMiddleware(workspaces), examCtl.Screen)

	return &testEnv{router: r, workspaces: workspaces, exams: exams, submits: &submits}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, sid string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set(util.SessionHeader, sid)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func (e *testEnv) open(t *testing.T) string {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/session", "", gin.H{"token": signToken(t, 42, time.Now().Add(time.Hour))})
	if w.Code != http.StatusCreated {
		t.Fatalf("open session: %d %s", w.Code, w.Body.String())
	}
	var data struct {
		SessionID string `json:"session_id"`
		UserID    uint   `json:"user_id"`
	}
	json.Unmarshal(env.Data, &data)
	if data.SessionID == "" || data.UserID != 42 {
		t.Fatalf("unexpected session payload %s", env.Data)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), util.SessionCookie+"="+data.SessionID) {
		t.Errorf("session cookie not set: %q", w.Header().Get("Set-Cookie"))
	}
	return data.SessionID
}

func TestOpenSessionRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := map[string]gin.H{
		"missing": {"token": ""},
		"garbage": {"token": "not-a-jwt"},
		"expired": {"token": signToken(t, 42, time.Now().Add(-time.Minute))},
	}
	want := map[string]int{
		"missing": http.StatusBadRequest,
		"garbage": http.StatusUnauthorized,
		"expired": http.StatusUnauthorized,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w, _ := env.do(t, http.MethodPost, "/api/session", "", body)
			if w.Code != want[name] {
				t.Errorf("expected %d, got %d: %s", want[name], w.Code, w.Body.String())
			}
		})
	}
}

func TestSessionRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	if w, _ := env.do(t, http.MethodGet, "/api/exam/mock", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no session: expected 401, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodGet, "/api/exam/mock", "unknown", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown session: expected 401, got %d", w.Code)
	}

	sid := env.open(t)
	if w, _ := env.do(t, http.MethodGet, "/api/session", sid, nil); w.Code != http.StatusOK {
		t.Errorf("me: expected 200, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodDelete, "/api/session", sid, nil); w.Code != http.StatusOK {
		t.Errorf("close: expected 200, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodGet, "/api/session", sid, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("closed session: expected 401, got %d", w.Code)
	}
}

func TestMockExamFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.open(t)

	w, res := env.do(t, http.MethodPost, "/api/exam/mock/start", sid, gin.H{"exam_type": "cet4"})
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	var v struct {
		Phase      string `json:"phase"`
		Remaining  int    `json:"remaining_seconds"`
		TotalPages int    `json:"total_pages"`
		Total      int    `json:"total"`
	}
	json.Unmarshal(res.Data, &v)
	if v.Phase != "in_exam" || v.Remaining != 1800 || v.TotalPages != 2 || v.Total != 2 {
		t.Fatalf("unexpected view after start %s", res.Data)
	}

	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/start", sid, gin.H{"exam_type": "cet4"}); w.Code != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", w.Code)
	}

	// 未作答不能手动交卷
	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/submit", sid, gin.H{"trigger": "nav_bar"}); w.Code != http.StatusBadRequest {
		t.Errorf("empty submit: expected 400, got %d", w.Code)
	}
	if atomic.LoadInt32(env.submits) != 0 {
		t.Fatal("rejected submit must not reach the backend")
	}

	w, res = env.do(t, http.MethodPost, "/api/exam/mock/answers", sid, gin.H{"question_id": 7, "option": "B. dog"})
	if w.Code != http.StatusOK {
		t.Fatalf("answer: %d %s", w.Code, w.Body.String())
	}
	var ans struct {
		Answer   string `json:"answer"`
		Answered int    `json:"answered"`
	}
	json.Unmarshal(res.Data, &ans)
	if ans.Answer != "B" || ans.Answered != 1 {
		t.Errorf("unexpected answer payload %s", res.Data)
	}

	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/answers", sid, gin.H{"question_id": 7, "option": "E. cow"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown option: expected 400, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/answers", sid, gin.H{"question_id": 7}); w.Code != http.StatusBadRequest {
		t.Errorf("missing answer: expected 400, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/page", sid, gin.H{"index": 5}); w.Code != http.StatusBadRequest {
		t.Errorf("page out of range: expected 400, got %d", w.Code)
	}

	w, res = env.do(t, http.MethodPost, "/api/exam/mock/jump", sid, gin.H{"question_id": 20})
	if w.Code != http.StatusOK {
		t.Fatalf("jump: %d %s", w.Code, w.Body.String())
	}
	var jumped struct {
		CurrentPage  int    `json:"current_page"`
		ScrollTarget string `json:"scroll_target"`
	}
	json.Unmarshal(res.Data, &jumped)
	if jumped.CurrentPage != 1 || jumped.ScrollTarget != "question-20" {
		t.Errorf("unexpected view after jump %s", res.Data)
	}

	w, res = env.do(t, http.MethodPost, "/api/exam/mock/answers", sid, gin.H{"question_id": 20, "text": "my town is small"})
	if w.Code != http.StatusOK {
		t.Fatalf("text answer: %d %s", w.Code, w.Body.String())
	}

	w, res = env.do(t, http.MethodPost, "/api/exam/mock/submit", sid, gin.H{"trigger": "answer_card"})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var result model.MockResult
	json.Unmarshal(res.Data, &result)
	if result.TotalScore != 88 || result.CEFRLevel != "B2" {
		t.Errorf("unexpected result %s", res.Data)
	}

	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/submit", sid, nil); w.Code != http.StatusConflict {
		t.Errorf("submit after result: expected 409, got %d", w.Code)
	}
	if n := atomic.LoadInt32(env.submits); n != 1 {
		t.Errorf("expected exactly one submit call, got %d", n)
	}

	env.exams.Wait()
	w, res = env.do(t, http.MethodGet, "/api/exam/mock/archive/m1", sid, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("archive: %d %s", w.Code, w.Body.String())
	}
	var archived service.ArchivedAttempt
	json.Unmarshal(res.Data, &archived)
	if archived.UserID != 42 || archived.Trigger != "answer_card" || len(archived.Answers) != 2 {
		t.Errorf("unexpected archived attempt %s", res.Data)
	}
}

func TestSubmitFailureMapsToBadGatewayAndAllowsRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	env := newTestEnv(t, &fail)
	sid := env.open(t)

	env.do(t, http.MethodPost, "/api/exam/mock/start", sid, nil)
	env.do(t, http.MethodPost, "/api/exam/mock/answers", sid, gin.H{"question_id": 7, "option": "A. cat"})

	w, res := env.do(t, http.MethodPost, "/api/exam/mock/submit", sid, nil)
	if w.Code != http.StatusBadGateway || res.Message != "grading unavailable" {
		t.Fatalf("expected 502 with backend message, got %d %q", w.Code, res.Message)
	}

	w, res = env.do(t, http.MethodGet, "/api/exam/mock", sid, nil)
	var v struct {
		Phase     string `json:"phase"`
		Answered  int    `json:"answered"`
		LastError string `json:"last_error"`
	}
	json.Unmarshal(res.Data, &v)
	if v.Phase != "in_exam" || v.Answered != 1 || v.LastError == "" {
		t.Errorf("failed submit should keep the exam and answers: %s", res.Data)
	}

	fail.Store(false)
	if w, _ := env.do(t, http.MethodPost, "/api/exam/mock/submit", sid, nil); w.Code != http.StatusOK {
		t.Errorf("retry: expected 200, got %d", w.Code)
	}
}

func TestExamScreenRendersCurrentPhase(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.open(t)

	req := httptest.NewRequest(http.MethodGet, "/exam", nil)
	req.Header.Set(util.SessionHeader, sid)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<html") {
		t.Fatalf("idle screen: %d %s", w.Code, w.Body.String())
	}

	env.do(t, http.MethodPost, "/api/exam/mock/start", sid, nil)
	req = httptest.NewRequest(http.MethodGet, "/exam?page=1", nil)
	req.Header.Set(util.SessionHeader, sid)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<textarea") {
		t.Errorf("writing page should render a text area: %s", w.Body.String())
	}
}

func TestQuestClaimUpdatesXP(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.open(t)

	if w, _ := env.do(t, http.MethodGet, "/api/xp", sid, nil); w.Code != http.StatusOK {
		t.Fatalf("xp: %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/quests/abc/claim", sid, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/quests/3/claim", sid, nil); w.Code != http.StatusOK {
		t.Fatalf("claim: %d", w.Code)
	}

	ws, err := env.workspaces.Get(httptest.NewRequest(http.MethodGet, "/", nil).Context(), sid)
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	sum := ws.Stores.XP.Cached()
	if sum == nil || sum.TotalXP != 1050 || sum.TodayXP != 50 {
		t.Errorf("reward should be folded into xp summary: %+v", sum)
	}
}

func TestProgressFallsBackToCachedCopy(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.open(t)

	w, _ := env.do(t, http.MethodGet, "/api/progress", sid, nil)
	if w.Code != http.StatusOK || w.Header().Get(util.StaleHeader) != "" {
		t.Fatalf("first load: %d stale=%q", w.Code, w.Header().Get(util.StaleHeader))
	}

	w, resp := env.do(t, http.MethodGet, "/api/progress", sid, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stale load: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(util.StaleHeader) != "true" || !strings.Contains(w.Body.String(), `"stale":true`) {
		t.Errorf("cached copy not marked stale: %s", w.Body.String())
	}
	var o model.ProgressOverview
	json.Unmarshal(resp.Data, &o)
	if o.CEFRLevel != "B1" || o.StreakDays != 6 {
		t.Errorf("unexpected overview %+v", o)
	}
}

func TestEssaySubmitReturnsPending(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.open(t)

	w, _ := env.do(t, http.MethodPost, "/api/clinic/essays", sid, gin.H{"text": " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank essay: %d", w.Code)
	}

	w, resp := env.do(t, http.MethodPost, "/api/clinic/essays", sid, gin.H{"prompt": "My town", "text": "I live in a small town."})
	if w.Code != http.StatusAccepted || resp.Code != http.StatusAccepted || resp.Message != "pending" {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var fb model.EssayFeedback
	json.Unmarshal(resp.Data, &fb)
	if fb.ID != "e1" {
		t.Errorf("unexpected feedback %+v", fb)
	}
}
