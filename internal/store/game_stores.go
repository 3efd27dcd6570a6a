package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"english_edu_dashboard/internal/apiclient"
	"english_edu_dashboard/internal/model"
)

// ArenaStore follows one PvP battle at a time.
type ArenaStore struct {
	base
	client *apiclient.Client

	battle *model.ArenaBattle
}

func NewArenaStore(client *apiclient.Client) *ArenaStore {
	return &ArenaStore{base: newBase("arena"), client: client}
}

func (s *ArenaStore) Match(ctx context.Context, mode string) (*model.ArenaBattle, error) {
	return run(ctx, &s.base, "match", func(ctx context.Context) (*model.ArenaBattle, error) {
		var b model.ArenaBattle
		if err := s.client.Post(ctx, "/arena/match", model.ArenaMatchRequest{Mode: mode}, &b); err != nil {
			return nil, err
		}
		return &b, nil
	}, s.setBattle)
}

func (s *ArenaStore) Battle(ctx context.Context, id string) (*model.ArenaBattle, error) {
	if id == "" {
		return nil, invalid("battle id is empty")
	}
	return run(ctx, &s.base, "battle", func(ctx context.Context) (*model.ArenaBattle, error) {
		var b model.ArenaBattle
		if err := s.client.Get(ctx, "/arena/battles/"+url.PathEscape(id), &b); err != nil {
			return nil, err
		}
		return &b, nil
	}, s.setBattle)
}

func (s *ArenaStore) Answer(ctx context.Context, id string, questionID uint, answer string) (*model.ArenaBattle, error) {
	answer = strings.TrimSpace(answer)
	if id == "" || answer == "" {
		return nil, invalid("battle id and answer are required")
	}
	return run(ctx, &s.base, "answer", func(ctx context.Context) (*model.ArenaBattle, error) {
		var b model.ArenaBattle
		req := model.ArenaAnswerRequest{QuestionID: questionID, Answer: answer}
		if err := s.client.Post(ctx, "/arena/battles/"+url.PathEscape(id)+"/answer", req, &b); err != nil {
			return nil, err
		}
		return &b, nil
	}, s.setBattle)
}

func (s *ArenaStore) setBattle(b *model.ArenaBattle) {
	s.battle = b
}

func (s *ArenaStore) Current() *model.ArenaBattle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battle
}

// QuestStore lists quests and claims their rewards.
type QuestStore struct {
	base
	client *apiclient.Client

	quests []model.Quest
}

func NewQuestStore(client *apiclient.Client) *QuestStore {
	return &QuestStore{base: newBase("quests"), client: client}
}

func (s *QuestStore) Quests(ctx context.Context) ([]model.Quest, error) {
	return run(ctx, &s.base, "list", func(ctx context.Context) ([]model.Quest, error) {
		var quests []model.Quest
		err := s.client.Get(ctx, "/quests", &quests)
		return quests, err
	}, func(quests []model.Quest) {
		s.quests = quests
	})
}

// Claim rejects quests the loaded list already marks as unclaimable.
func (s *QuestStore) Claim(ctx context.Context, id uint) (*model.RewardResult, error) {
	s.mu.Lock()
	for _, q := range s.quests {
		if q.ID == id && (!q.Claimable || q.Claimed) {
			s.mu.Unlock()
			return nil, invalid("quest %d cannot be claimed", id)
		}
	}
	s.mu.Unlock()

	return run(ctx, &s.base, "claim", func(ctx context.Context) (*model.RewardResult, error) {
		var r model.RewardResult
		if err := s.client.Post(ctx, fmt.Sprintf("/quests/%d/claim", id), nil, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, func(*model.RewardResult) {
		for i := range s.quests {
			if s.quests[i].ID == id {
				s.quests[i].Claimed = true
				s.quests[i].Claimable = false
			}
		}
	})
}

func (s *QuestStore) CachedQuests() []model.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Quest(nil), s.quests...)
}

// 每日任务
type MissionStore struct {
	base
	client *apiclient.Client

	missions []model.Mission
}

func NewMissionStore(client *apiclient.Client) *MissionStore {
	return &MissionStore{base: newBase("missions"), client: client}
}

func (s *MissionStore) Daily(ctx context.Context) ([]model.Mission, error) {
	return run(ctx, &s.base, "daily", func(ctx context.Context) ([]model.Mission, error) {
		var list []model.Mission
		err := s.client.Get(ctx, "/missions/daily", &list)
		return list, err
	}, func(list []model.Mission) {
		s.missions = list
	})
}

func (s *MissionStore) Complete(ctx context.Context, id uint) (*model.RewardResult, error) {
	return run(ctx, &s.base, "complete", func(ctx context.Context) (*model.RewardResult, error) {
		var r model.RewardResult
		if err := s.client.Post(ctx, fmt.Sprintf("/missions/%d/complete", id), nil, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}, func(*model.RewardResult) {
		for i := range s.missions {
			if s.missions[i].ID == id {
				s.missions[i].Completed = true
			}
		}
	})
}

// XPStore keeps the learner's experience summary.
type XPStore struct {
	base
	client *apiclient.Client

	summary *model.XPSummary
}

func NewXPStore(client *apiclient.Client) *XPStore {
	return &XPStore{base: newBase("xp"), client: client}
}

func (s *XPStore) Summary(ctx context.Context) (*model.XPSummary, error) {
	return run(ctx, &s.base, "summary", func(ctx context.Context) (*model.XPSummary, error) {
		var sum model.XPSummary
		if err := s.client.Get(ctx, "/xp/summary", &sum); err != nil {
			return nil, err
		}
		return &sum, nil
	}, func(sum *model.XPSummary) {
		s.summary = sum
	})
}

// ApplyReward folds a claimed reward into the cached summary so screens
// update without a refetch.
func (s *XPStore) ApplyReward(r *model.RewardResult) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return
	}
	s.summary.TodayXP += r.XPGained
	if r.TotalXP > 0 {
		s.summary.TotalXP = r.TotalXP
	} else {
		s.summary.TotalXP += r.XPGained
	}
}

func (s *XPStore) Cached() *model.XPSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return nil
	}
	cp := *s.summary
	return &cp
}
