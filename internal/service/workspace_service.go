package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/auth"
	"english_edu_dashboard/internal/config"
	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/internal/store"
	"english_edu_dashboard/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrUnknownSession = errors.New("unknown or expired session")
	ErrInvalidToken   = errors.New("invalid token")
)

// Workspace is everything one signed-in learner works with: the stores that
// mirror backend state and the running mock exam session.
type Workspace struct {
	SessionID string
	Claims    *auth.Claims
	Stores    *store.Set
	Exam      *exam.Session

	mu       sync.Mutex
	lastSeen time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// FinishedHook runs after a workspace's exam was graded.
type FinishedHook func(ws *Workspace, attempt exam.FinishedAttempt)

// FailedHook runs when the backend rejects a workspace's submission.
type FailedHook func(ws *Workspace, trigger exam.Trigger, err error)

type WorkspaceService struct {
	tokens auth.TokenStore
	client *apiclient.Client
	now    func() time.Time

	mu         sync.Mutex
	cfg        config.ExamConfig
	workspaces map[string]*Workspace
	onFinished FinishedHook
	onFailed   FailedHook
}

func NewWorkspaceService(cfg config.ExamConfig, tokens auth.TokenStore, client *apiclient.Client) *WorkspaceService {
	return &WorkspaceService{
		tokens:     tokens,
		client:     client,
		now:        time.Now,
		cfg:        cfg,
		workspaces: make(map[string]*Workspace),
	}
}

func (s *WorkspaceService) SetFinishedHook(h FinishedHook) {
	s.mu.Lock()
	s.onFinished = h
	s.mu.Unlock()
}

func (s *WorkspaceService) SetFailedHook(h FailedHook) {
	s.mu.Lock()
	s.onFailed = h
	s.mu.Unlock()
}

// OpenSession stores the learner's backend token under a new session id.
func (s *WorkspaceService) OpenSession(ctx context.Context, token string) (string, *auth.Claims, error) {
	claims, err := auth.Inspect(token)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Expired(s.now()) {
		return "", nil, ErrTokenExpired
	}

	sid := model.NewSessionID()
	if err := s.tokens.Save(ctx, sid, token); err != nil {
		return "", nil, err
	}

	logger.Log.Info("dashboard session opened", zap.String("sessionId", sid), zap.Uint("userId", claims.UserID))
	return sid, claims, nil
}

// Get returns the session's workspace, building it on first use.
func (s *WorkspaceService) Get(ctx context.Context, sid string) (*Workspace, error) {
	if sid == "" {
		return nil, ErrUnknownSession
	}

	s.mu.Lock()
	if ws, ok := s.workspaces[sid]; ok {
		s.mu.Unlock()
		if ws.Claims.Expired(s.now()) {
			s.CloseSession(ctx, sid)
			return nil, ErrTokenExpired
		}
		ws.touch(s.now())
		return ws, nil
	}
	s.mu.Unlock()

	token, err := s.tokens.Load(ctx, sid)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, ErrUnknownSession
		}
		return nil, err
	}
	claims, err := auth.Inspect(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Expired(s.now()) {
		s.tokens.Delete(ctx, sid)
		return nil, ErrTokenExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 并发请求可能已经创建
	if ws, ok := s.workspaces[sid]; ok {
		ws.touch(s.now())
		return ws, nil
	}
	ws := s.newWorkspaceLocked(sid, claims)
	s.workspaces[sid] = ws
	logger.Log.Debug("workspace created", zap.String("sessionId", sid), zap.Uint("userId", claims.UserID))
	return ws, nil
}

func (s *WorkspaceService) newWorkspaceLocked(sid string, claims *auth.Claims) *Workspace {
	client := s.client.WithTokens(auth.SessionTokens{Store: s.tokens, SessionID: sid})
	ws := &Workspace{
		SessionID: sid,
		Claims:    claims,
		Stores:    store.NewSet(client, s.cfg.ClinicPollInterval),
		lastSeen:  s.now(),
	}
	ws.Exam = exam.NewSession(ws.Stores.Exam, exam.Options{
		AutoSubmitOnExpiry: s.cfg.AutoSubmitOnExpiry,
		TickInterval:       s.cfg.TickInterval,
		OnFinished: func(a exam.FinishedAttempt) {
			s.mu.Lock()
			hook := s.onFinished
			s.mu.Unlock()
			if hook != nil {
				hook(ws, a)
			}
		},
		OnFailed: func(trigger exam.Trigger, err error) {
			s.mu.Lock()
			hook := s.onFailed
			s.mu.Unlock()
			if hook != nil {
				hook(ws, trigger, err)
			}
		},
	})
	return ws
}

// CloseSession forgets the workspace, stops its exam timer and deletes the
// stored token.
func (s *WorkspaceService) CloseSession(ctx context.Context, sid string) error {
	s.mu.Lock()
	ws, ok := s.workspaces[sid]
	delete(s.workspaces, sid)
	s.mu.Unlock()

	if ok {
		ws.Exam.Close()
		ws.Stores.Invalidate()
	}
	if err := s.tokens.Delete(ctx, sid); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return err
	}
	logger.Log.Info("dashboard session closed", zap.String("sessionId", sid))
	return nil
}

// Sweep evicts workspaces idle for longer than the configured TTL. A
// workspace with an exam in progress is kept. Tokens stay stored, so an
// evicted session is rebuilt on its next request.
func (s *WorkspaceService) Sweep() int {
	s.mu.Lock()
	ttl := s.cfg.WorkspaceIdleTTL
	if ttl <= 0 {
		s.mu.Unlock()
		return 0
	}
	cutoff := s.now().Add(-ttl)
	var evicted []*Workspace
	for sid, ws := range s.workspaces {
		if ws.idleSince().After(cutoff) {
			continue
		}
		switch ws.Exam.Phase() {
		case exam.PhaseInExam, exam.PhaseSubmitting, exam.PhaseLoading:
			continue
		}
		delete(s.workspaces, sid)
		evicted = append(evicted, ws)
	}
	s.mu.Unlock()

	for _, ws := range evicted {
		ws.Exam.Close()
		ws.Stores.Invalidate()
	}
	if len(evicted) > 0 {
		logger.Log.Info("idle workspaces evicted", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx ends.
func (s *WorkspaceService) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// ApplyExamConfig updates the policy for new workspaces and the expiry
// policy of running ones.
func (s *WorkspaceService) ApplyExamConfig(cfg config.ExamConfig) {
	s.mu.Lock()
	s.cfg = cfg
	list := make([]*Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		list = append(list, ws)
	}
	s.mu.Unlock()

	for _, ws := range list {
		ws.Exam.SetAutoSubmit(cfg.AutoSubmitOnExpiry)
	}
}

func (s *WorkspaceService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Shutdown closes every workspace without deleting tokens.
func (s *WorkspaceService) Shutdown() {
	s.mu.Lock()
	list := s.workspaces
	s.workspaces = make(map[string]*Workspace)
	s.mu.Unlock()

	for _, ws := range list {
		ws.Exam.Close()
	}
}
