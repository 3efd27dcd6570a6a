package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/pkg/logger"
	"english_edu_dashboard/pkg/monitoring"

	"go.uber.org/zap"
)

const archiveTimeout = 30 * time.Second

var ErrArchiveDisabled = errors.New("attempt archive is disabled")

// ExamService drives a workspace's mock exam session and archives every
// graded attempt. Archiving is best-effort: failures are logged only.
type ExamService struct {
	Archive *ArchiveService

	wg sync.WaitGroup
}

func NewExamService(archive *ArchiveService, workspaces *WorkspaceService) *ExamService {
	s := &ExamService{Archive: archive}
	workspaces.SetFinishedHook(s.onFinished)
	workspaces.SetFailedHook(s.onFailed)
	return s
}

func (s *ExamService) Start(ctx context.Context, ws *Workspace, examType string) (*model.MockExam, error) {
	return ws.Exam.Start(ctx, examType)
}

// Submit is the manual submission path (nav bar or answer card). Backend
// failures are counted by onFailed, which also sees the timer's submits.
func (s *ExamService) Submit(ctx context.Context, ws *Workspace, trigger exam.Trigger) (*model.MockResult, error) {
	res, err := ws.Exam.Finish(ctx, trigger)
	if err != nil {
		switch {
		case errors.Is(err, exam.ErrNoAnswers), errors.Is(err, exam.ErrNotInExam):
			monitoring.MockSubmissions.WithLabelValues(string(trigger), "rejected").Inc()
		case errors.Is(err, exam.ErrStaleResponse):
			monitoring.MockSubmissions.WithLabelValues(string(trigger), "stale").Inc()
		}
		return nil, err
	}
	return res, nil
}

// History returns the backend's attempt list.
func (s *ExamService) History(ctx context.Context, ws *Workspace) ([]model.MockHistoryItem, error) {
	return ws.Stores.Exam.History(ctx)
}

// LocalAttempts lists the attempts archived by this dashboard.
func (s *ExamService) LocalAttempts(ws *Workspace, limit int) ([]*model.ExamAttemptRecord, error) {
	if s.Archive == nil {
		return nil, nil
	}
	return s.Archive.Attempts(ws.Claims.UserID, limit)
}

// Archived reads back a snapshot this dashboard stored for the learner.
func (s *ExamService) Archived(ctx context.Context, ws *Workspace, mockID string) (*ArchivedAttempt, error) {
	if s.Archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.Archive.Load(ctx, ws.Claims.UserID, mockID)
}

func (s *ExamService) onFinished(ws *Workspace, a exam.FinishedAttempt) {
	monitoring.MockSubmissions.WithLabelValues(string(a.Trigger), "success").Inc()
	if s.Archive == nil {
		return
	}

	userID := ws.Claims.UserID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if _, err := s.Archive.Archive(ctx, userID, a); err != nil {
			logger.Log.Warn("archive mock exam failed",
				zap.Uint("userId", userID),
				zap.String("mockId", a.Exam.MockID),
				zap.Error(err))
		}
	}()
}

func (s *ExamService) onFailed(ws *Workspace, trigger exam.Trigger, err error) {
	monitoring.MockSubmissions.WithLabelValues(string(trigger), "failed").Inc()
}

// Wait blocks until pending archive writes are done.
func (s *ExamService) Wait() {
	s.wg.Wait()
}
