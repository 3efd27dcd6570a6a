package store

import (
	"context"
	"fmt"
	"net/url"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/model"
)

// ExamStore talks to the mock exam endpoints. It is the Backend of an
// exam.Session.
type ExamStore struct {
	base
	client *apiclient.Client

	current *model.MockExam
	result  *model.MockResult
	history []model.MockHistoryItem
}

func NewExamStore(client *apiclient.Client) *ExamStore {
	return &ExamStore{base: newBase("exam"), client: client}
}

func (s *ExamStore) StartMock(ctx context.Context, examType string) (*model.MockExam, error) {
	return run(ctx, &s.base, "start", func(ctx context.Context) (*model.MockExam, error) {
		var exam model.MockExam
		if err := s.client.Post(ctx, "/exam/mock/start", model.StartMockRequest{ExamType: examType}, &exam); err != nil {
			return nil, err
		}
		return &exam, nil
	}, func(exam *model.MockExam) {
		s.current = exam
		s.result = nil
	})
}

func (s *ExamStore) SubmitMock(ctx context.Context, req model.SubmitRequest) (*model.MockResult, error) {
	return run(ctx, &s.base, "submit", func(ctx context.Context) (*model.MockResult, error) {
		var res model.MockResult
		if err := s.client.Post(ctx, "/exam/mock/submit", req, &res); err != nil {
			return nil, err
		}
		return &res, nil
	}, func(res *model.MockResult) {
		s.current = nil
		s.result = res
	})
}

// History loads past attempts. On failure the previously loaded list stays.
func (s *ExamStore) History(ctx context.Context) ([]model.MockHistoryItem, error) {
	return run(ctx, &s.base, "history", func(ctx context.Context) ([]model.MockHistoryItem, error) {
		var items []model.MockHistoryItem
		err := s.client.Get(ctx, "/exam/mock/history", &items)
		return items, err
	}, func(items []model.MockHistoryItem) {
		s.history = items
	})
}

func (s *ExamStore) Result(ctx context.Context, mockID string) (*model.MockResult, error) {
	if mockID == "" {
		return nil, fmt.Errorf("%w: mock id", ErrInvalidInput)
	}
	return run(ctx, &s.base, "result", func(ctx context.Context) (*model.MockResult, error) {
		var res model.MockResult
		if err := s.client.Get(ctx, "/exam/mock/result/"+url.PathEscape(mockID), &res); err != nil {
			return nil, err
		}
		return &res, nil
	}, func(res *model.MockResult) {
		s.result = res
	})
}

// CachedHistory returns the last successfully loaded history.
func (s *ExamStore) CachedHistory() []model.MockHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MockHistoryItem(nil), s.history...)
}

func (s *ExamStore) LastResult() *model.MockResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
