package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/pkg/logger"

	"go.uber.org/zap"
)

const defaultClinicPollInterval = 2 * time.Second

// ClinicStore submits essays for AI feedback. Grading is asynchronous on the
// backend, so Await polls until the feedback is done.
type ClinicStore struct {
	base
	client   *apiclient.Client
	interval time.Duration

	feedback map[string]*model.EssayFeedback
}

func NewClinicStore(client *apiclient.Client, pollInterval time.Duration) *ClinicStore {
	if pollInterval <= 0 {
		pollInterval = defaultClinicPollInterval
	}
	return &ClinicStore{
		base:     newBase("clinic"),
		client:   client,
		interval: pollInterval,
		feedback: make(map[string]*model.EssayFeedback),
	}
}

func (s *ClinicStore) Submit(ctx context.Context, essay model.EssaySubmission) (*model.EssayFeedback, error) {
	if strings.TrimSpace(essay.Text) == "" {
		return nil, invalid("essay text is empty")
	}
	return run(ctx, &s.base, "submit", func(ctx context.Context) (*model.EssayFeedback, error) {
		var fb model.EssayFeedback
		if err := s.client.Post(ctx, "/clinic/essays", essay, &fb); err != nil {
			return nil, err
		}
		return &fb, nil
	}, s.remember)
}

func (s *ClinicStore) Feedback(ctx context.Context, id string) (*model.EssayFeedback, error) {
	if id == "" {
		return nil, invalid("essay id is empty")
	}
	return run(ctx, &s.base, "feedback:"+id, func(ctx context.Context) (*model.EssayFeedback, error) {
		var fb model.EssayFeedback
		if err := s.client.Get(ctx, "/clinic/essays/"+url.PathEscape(id), &fb); err != nil {
			return nil, err
		}
		return &fb, nil
	}, s.remember)
}

// Await polls the essay until its status is done or failed, or ctx ends.
func (s *ClinicStore) Await(ctx context.Context, id string) (*model.EssayFeedback, error) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		fb, err := s.Feedback(ctx, id)
		if err != nil {
			return nil, err
		}
		switch fb.Status {
		case model.EssayStatusDone, model.EssayStatusFailed:
			return fb, nil
		}
		logger.Log.Debug("essay feedback pending", zap.String("essayId", id), zap.String("status", fb.Status))

		select {
		case <-ctx.Done():
			return fb, ctx.Err()
		case <-t.C:
		}
	}
}

func (s *ClinicStore) remember(fb *model.EssayFeedback) {
	if fb != nil && fb.ID != "" {
		s.feedback[fb.ID] = fb
	}
}

// ProgressStore holds the learning overview.
type ProgressStore struct {
	base
	client *apiclient.Client

	overview *model.ProgressOverview
}

func NewProgressStore(client *apiclient.Client) *ProgressStore {
	return &ProgressStore{base: newBase("progress"), client: client}
}

func (s *ProgressStore) Overview(ctx context.Context) (*model.ProgressOverview, error) {
	return run(ctx, &s.base, "overview", func(ctx context.Context) (*model.ProgressOverview, error) {
		var o model.ProgressOverview
		if err := s.client.Get(ctx, "/progress/overview", &o); err != nil {
			return nil, err
		}
		return &o, nil
	}, func(o *model.ProgressOverview) {
		s.overview = o
	})
}

func (s *ProgressStore) Cached() *model.ProgressOverview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overview
}

// OnboardingStore runs the placement questionnaire.
type OnboardingStore struct {
	base
	client *apiclient.Client

	questions []model.OnboardingQuestion
	result    *model.OnboardingResult
}

func NewOnboardingStore(client *apiclient.Client) *OnboardingStore {
	return &OnboardingStore{base: newBase("onboarding"), client: client}
}

func (s *OnboardingStore) Questions(ctx context.Context) ([]model.OnboardingQuestion, error) {
	return run(ctx, &s.base, "questions", func(ctx context.Context) ([]model.OnboardingQuestion, error) {
		var qs []model.OnboardingQuestion
		err := s.client.Get(ctx, "/onboarding/questions", &qs)
		return qs, err
	}, func(qs []model.OnboardingQuestion) {
		s.questions = qs
	})
}

// Submit sends the questionnaire. Every loaded question needs a non-empty
// answer; otherwise nothing is sent.
func (s *OnboardingStore) Submit(ctx context.Context, answers map[uint]string) (*model.OnboardingResult, error) {
	s.mu.Lock()
	questions := append([]model.OnboardingQuestion(nil), s.questions...)
	s.mu.Unlock()

	if len(questions) == 0 {
		return nil, invalid("questionnaire not loaded")
	}
	req := model.OnboardingSubmitRequest{Answers: make([]model.OnboardingAnswer, 0, len(questions))}
	for _, q := range questions {
		a := strings.TrimSpace(answers[q.ID])
		if a == "" {
			return nil, invalid("question %d is not answered", q.ID)
		}
		req.Answers = append(req.Answers, model.OnboardingAnswer{QuestionID: q.ID, Answer: a})
	}

	return run(ctx, &s.base, "submit", func(ctx context.Context) (*model.OnboardingResult, error) {
		var res model.OnboardingResult
		if err := s.client.Post(ctx, "/onboarding/answers", req, &res); err != nil {
			return nil, err
		}
		return &res, nil
	}, func(res *model.OnboardingResult) {
		s.result = res
	})
}
