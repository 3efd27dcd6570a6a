package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/model"
)

// ErrInvalidInput wraps every synchronous validation failure; no request is
// sent when it is returned.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// 语法练习
type GrammarStore struct {
	base
	client *apiclient.Client

	topics    []model.GrammarTopic
	exercises map[uint][]model.GrammarExercise
}

func NewGrammarStore(client *apiclient.Client) *GrammarStore {
	return &GrammarStore{base: newBase("grammar"), client: client, exercises: make(map[uint][]model.GrammarExercise)}
}

func (s *GrammarStore) Topics(ctx context.Context) ([]model.GrammarTopic, error) {
	return run(ctx, &s.base, "topics", func(ctx context.Context) ([]model.GrammarTopic, error) {
		var topics []model.GrammarTopic
		err := s.client.Get(ctx, "/grammar/topics", &topics)
		return topics, err
	}, func(topics []model.GrammarTopic) {
		s.topics = topics
	})
}

func (s *GrammarStore) Exercises(ctx context.Context, topicID uint) ([]model.GrammarExercise, error) {
	return run(ctx, &s.base, fmt.Sprintf("exercises:%d", topicID), func(ctx context.Context) ([]model.GrammarExercise, error) {
		var list []model.GrammarExercise
		err := s.client.Get(ctx, fmt.Sprintf("/grammar/topics/%d/exercises", topicID), &list)
		return list, err
	}, func(list []model.GrammarExercise) {
		s.exercises[topicID] = list
	})
}

func (s *GrammarStore) Check(ctx context.Context, exerciseID uint, answer string) (*model.GrammarCheckResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, invalid("answer is empty")
	}
	return run(ctx, &s.base, "check", func(ctx context.Context) (*model.GrammarCheckResult, error) {
		var res model.GrammarCheckResult
		if err := s.client.Post(ctx, fmt.Sprintf("/grammar/exercises/%d/check", exerciseID), model.GrammarCheckRequest{Answer: answer}, &res); err != nil {
			return nil, err
		}
		return &res, nil
	}, nil)
}

func (s *GrammarStore) CachedTopics() []model.GrammarTopic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.GrammarTopic(nil), s.topics...)
}

// 教材词汇
type TextbookStore struct {
	base
	client *apiclient.Client

	units  []model.TextbookUnit
	detail map[uint]*model.TextbookUnitDetail
}

func NewTextbookStore(client *apiclient.Client) *TextbookStore {
	return &TextbookStore{base: newBase("textbook"), client: client, detail: make(map[uint]*model.TextbookUnitDetail)}
}

func (s *TextbookStore) Units(ctx context.Context) ([]model.TextbookUnit, error) {
	return run(ctx, &s.base, "units", func(ctx context.Context) ([]model.TextbookUnit, error) {
		var units []model.TextbookUnit
		err := s.client.Get(ctx, "/textbook/units", &units)
		return units, err
	}, func(units []model.TextbookUnit) {
		s.units = units
	})
}

func (s *TextbookStore) Unit(ctx context.Context, id uint) (*model.TextbookUnitDetail, error) {
	return run(ctx, &s.base, fmt.Sprintf("unit:%d", id), func(ctx context.Context) (*model.TextbookUnitDetail, error) {
		var d model.TextbookUnitDetail
		if err := s.client.Get(ctx, fmt.Sprintf("/textbook/units/%d", id), &d); err != nil {
			return nil, err
		}
		return &d, nil
	}, func(d *model.TextbookUnitDetail) {
		s.detail[id] = d
	})
}

// 分级故事阅读
type StoryStore struct {
	base
	client *apiclient.Client

	stories []model.StorySummary
	detail  map[uint]*model.StoryDetail
}

func NewStoryStore(client *apiclient.Client) *StoryStore {
	return &StoryStore{base: newBase("story"), client: client, detail: make(map[uint]*model.StoryDetail)}
}

func (s *StoryStore) Stories(ctx context.Context) ([]model.StorySummary, error) {
	return run(ctx, &s.base, "stories", func(ctx context.Context) ([]model.StorySummary, error) {
		var list []model.StorySummary
		err := s.client.Get(ctx, "/stories", &list)
		return list, err
	}, func(list []model.StorySummary) {
		s.stories = list
	})
}

func (s *StoryStore) Story(ctx context.Context, id uint) (*model.StoryDetail, error) {
	return run(ctx, &s.base, fmt.Sprintf("story:%d", id), func(ctx context.Context) (*model.StoryDetail, error) {
		var d model.StoryDetail
		if err := s.client.Get(ctx, fmt.Sprintf("/stories/%d", id), &d); err != nil {
			return nil, err
		}
		return &d, nil
	}, func(d *model.StoryDetail) {
		s.detail[id] = d
	})
}

// SaveProgress records the chapter the learner reached. When the story has
// been loaded the chapter must exist in it.
func (s *StoryStore) SaveProgress(ctx context.Context, id uint, chapter int) error {
	if chapter < 0 {
		return invalid("chapter must not be negative")
	}
	s.mu.Lock()
	d := s.detail[id]
	if d != nil && len(d.Content) > 0 && chapter >= len(d.Content) {
		s.mu.Unlock()
		return invalid("story %d has no chapter %d", id, chapter)
	}
	s.mu.Unlock()

	_, err := run(ctx, &s.base, "progress", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.Post(ctx, fmt.Sprintf("/stories/%d/progress", id), model.StoryProgressRequest{Chapter: chapter}, nil)
	}, func(struct{}) {
		if d := s.detail[id]; d != nil && chapter+1 > d.Progress {
			d.Progress = chapter + 1
		}
	})
	return err
}
