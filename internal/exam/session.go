package exam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/pkg/logger"

	"go.uber.org/zap"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseInExam     Phase = "in_exam"
	PhaseSubmitting Phase = "submitting"
	PhaseResult     Phase = "result"
)

// Trigger names where a submission came from.
type Trigger string

const (
	TriggerNavBar     Trigger = "nav_bar"
	TriggerAnswerCard Trigger = "answer_card"
	TriggerTimer      Trigger = "timer"
)

// ScrollTop is the scroll target after a page switch.
const ScrollTop = "top"

// Backend is the part of the learning backend a session talks to.
type Backend interface {
	StartMock(ctx context.Context, examType string) (*model.MockExam, error)
	SubmitMock(ctx context.Context, req model.SubmitRequest) (*model.MockResult, error)
}

// FinishedAttempt is handed to Options.OnFinished after a successful submission.
type FinishedAttempt struct {
	Exam    *model.MockExam
	Request model.SubmitRequest
	Result  *model.MockResult
	Trigger Trigger
}

type Options struct {
	// AutoSubmitOnExpiry submits through Finish when the countdown reaches zero.
	AutoSubmitOnExpiry bool
	TickInterval       time.Duration
	// OnFinished runs outside the session lock after a successful submission.
	OnFinished func(FinishedAttempt)
	// OnFailed runs outside the session lock when the backend rejects a
	// submission, whatever the trigger.
	OnFailed func(trigger Trigger, err error)
}

// Session is the state of one learner's mock exam: the exam, its derived
// pages, the answers, the countdown and the current page. All methods are
// safe for concurrent use; network calls run outside the lock.
type Session struct {
	backend Backend
	opts    Options

	mu             sync.Mutex
	phase          Phase
	generation     uint64
	exam           *model.MockExam
	pages          PageCache
	answers        Answers
	countdown      Countdown
	current        int
	answerCardOpen bool
	scrollTarget   string
	result         *model.MockResult
	lastError      string
	stopTick       chan struct{}
	closed         bool

	subs    map[int]chan Event
	nextSub int
}

func NewSession(backend Backend, opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	return &Session{
		backend: backend,
		opts:    opts,
		phase:   PhaseIdle,
	}
}

// SetAutoSubmit changes the expiry policy for the running and future exams.
func (s *Session) SetAutoSubmit(enabled bool) {
	s.mu.Lock()
	s.opts.AutoSubmitOnExpiry = enabled
	s.mu.Unlock()
}

// Start fetches a new mock exam. Answers from any previous exam are cleared
// before the new exam is stored.
func (s *Session) Start(ctx context.Context, examType string) (*model.MockExam, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	switch s.phase {
	case PhaseLoading, PhaseInExam, PhaseSubmitting:
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.generation++
	gen := s.generation
	s.phase = PhaseLoading
	s.answers.Reset()
	s.exam = nil
	s.result = nil
	s.lastError = ""
	s.publishLocked(EventPhase)
	s.mu.Unlock()

	exam, err := s.backend.StartMock(ctx, examType)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrStaleResponse
	}
	if err != nil {
		s.phase = PhaseIdle
		s.lastError = err.Error()
		s.publishLocked(EventPhase)
		logger.Log.Warn("start mock exam failed", zap.String("examType", examType), zap.Error(err))
		return nil, fmt.Errorf("start mock exam: %w", err)
	}

	s.answers.Reset()
	s.exam = exam
	s.countdown = NewCountdown(exam.TimeLimitMinutes)
	s.current = 0
	s.answerCardOpen = false
	s.scrollTarget = ScrollTop
	s.phase = PhaseInExam
	if s.countdown.Remaining() > 0 {
		s.startTickerLocked(gen)
	}
	s.publishLocked(EventPhase)

	logger.Log.Info("mock exam started",
		zap.String("mockId", exam.MockID),
		zap.String("examType", exam.ExamType),
		zap.Int("questions", exam.QuestionCount()),
		zap.Int("timeLimitMinutes", exam.TimeLimitMinutes))
	return exam, nil
}

// SelectOption stores the canonical letter of option as the question's
// answer. Selecting the same option again leaves the same answer.
func (s *Session) SelectOption(questionID uint, option string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInExam {
		return "", ErrNotInExam
	}

	page, q := s.locateLocked(questionID)
	if q == nil {
		return "", ErrUnknownQuestion
	}
	if !page.Kind.HasOptions() {
		return "", ErrWrongAnswerKind
	}

	index := -1
	for i, o := range q.Options {
		if o == option {
			index = i
			break
		}
	}
	if index < 0 {
		return "", ErrUnknownOption
	}

	letter := ExtractLetter(page.Kind, option, index)
	if letter == "" {
		return "", ErrUnknownOption
	}
	s.answers.Set(questionID, letter)
	s.publishLocked(EventAnswer)
	return letter, nil
}

// SetText stores a free-text answer and returns its word count.
func (s *Session) SetText(questionID uint, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInExam {
		return 0, ErrNotInExam
	}

	page, q := s.locateLocked(questionID)
	if q == nil {
		return 0, ErrUnknownQuestion
	}
	if page.Kind.HasOptions() {
		return 0, ErrWrongAnswerKind
	}

	s.answers.Set(questionID, text)
	s.publishLocked(EventAnswer)
	return WordCount(text), nil
}

// GoToPage shows page index. Out-of-range indices are ignored.
func (s *Session) GoToPage(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToPageLocked(index)
}

func (s *Session) NextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToPageLocked(s.current + 1)
}

func (s *Session) PrevPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToPageLocked(s.current - 1)
}

func (s *Session) goToPageLocked(index int) bool {
	pages := s.pages.Pages(s.exam)
	if index < 0 || index >= len(pages) {
		return false
	}
	s.current = index
	s.answerCardOpen = false
	s.scrollTarget = ScrollTop
	s.publishLocked(EventPage)
	return true
}

// JumpToQuestion switches to the page owning the question, then scrolls to
// the question within that page.
func (s *Session) JumpToQuestion(questionID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := PageOf(s.pages.Pages(s.exam), questionID)
	if idx < 0 || !s.goToPageLocked(idx) {
		return false
	}
	s.scrollTarget = QuestionAnchor(questionID)
	return true
}

// QuestionAnchor is the in-page scroll target of a question.
func QuestionAnchor(questionID uint) string {
	return fmt.Sprintf("question-%d", questionID)
}

func (s *Session) SetAnswerCardOpen(open bool) {
	s.mu.Lock()
	s.answerCardOpen = open && s.phase == PhaseInExam
	s.mu.Unlock()
}

// Finish is the only submission path. Whichever trigger reaches it first
// moves the session out of PhaseInExam; any later trigger gets ErrNotInExam
// and makes no network call.
func (s *Session) Finish(ctx context.Context, trigger Trigger) (*model.MockResult, error) {
	s.mu.Lock()
	if s.phase != PhaseInExam {
		s.mu.Unlock()
		return nil, ErrNotInExam
	}
	// 计时结束后（含自动交卷失败）允许空卷提交
	if trigger != TriggerTimer && !s.timeUpLocked() && s.answers.Count() == 0 {
		s.mu.Unlock()
		return nil, ErrNoAnswers
	}

	s.phase = PhaseSubmitting
	s.answerCardOpen = false
	s.stopTickerLocked()
	gen := s.generation
	exam := s.exam
	req := BuildSubmitRequest(exam.MockID, s.answers.Snapshot())
	s.publishLocked(EventPhase)
	s.mu.Unlock()

	res, err := s.backend.SubmitMock(ctx, req)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil, ErrStaleResponse
	}
	if err != nil {
		s.phase = PhaseInExam
		s.lastError = err.Error()
		if s.countdown.Remaining() > 0 {
			s.startTickerLocked(gen)
		}
		s.publishLocked(EventPhase)
		onFailed := s.opts.OnFailed
		s.mu.Unlock()
		logger.Log.Warn("submit mock exam failed",
			zap.String("mockId", exam.MockID),
			zap.String("trigger", string(trigger)),
			zap.Error(err))
		if onFailed != nil {
			onFailed(trigger, err)
		}
		return nil, fmt.Errorf("submit mock exam: %w", err)
	}

	s.exam = nil
	s.pages.Pages(nil)
	s.answers.Reset()
	s.current = 0
	s.result = res
	s.lastError = ""
	s.phase = PhaseResult
	s.publishLocked(EventPhase)
	onFinished := s.opts.OnFinished
	s.mu.Unlock()

	logger.Log.Info("mock exam submitted",
		zap.String("mockId", exam.MockID),
		zap.String("trigger", string(trigger)),
		zap.Int("answers", len(req.Answers)))

	if onFinished != nil {
		onFinished(FinishedAttempt{Exam: exam, Request: req, Result: res, Trigger: trigger})
	}
	return res, nil
}

// Reset drops the exam, answers and result. A response still in flight is
// discarded when it arrives.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.publishLocked(EventPhase)
}

func (s *Session) resetLocked() {
	s.generation++
	s.stopTickerLocked()
	s.phase = PhaseIdle
	s.exam = nil
	s.pages.Pages(nil)
	s.answers.Reset()
	s.countdown = Countdown{}
	s.current = 0
	s.answerCardOpen = false
	s.scrollTarget = ""
	s.result = nil
	s.lastError = ""
}

// Close stops the timer and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown.Remaining()
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Count()
}

// timeUpLocked reports whether a timed exam has run out. Caller holds s.mu.
func (s *Session) timeUpLocked() bool {
	return s.exam != nil && s.exam.TimeLimitMinutes > 0 && s.countdown.Remaining() == 0
}

func (s *Session) locateLocked(questionID uint) (*Page, *model.Question) {
	pages := s.pages.Pages(s.exam)
	for i := range pages {
		for j := range pages[i].Questions {
			if pages[i].Questions[j].ID == questionID {
				return &pages[i], &pages[i].Questions[j]
			}
		}
	}
	return nil, nil
}

// startTickerLocked runs the countdown while the session stays in this
// generation and in PhaseInExam. Caller holds s.mu.
func (s *Session) startTickerLocked(gen uint64) {
	s.stopTickerLocked()
	stop := make(chan struct{})
	s.stopTick = stop
	go s.runTicker(gen, stop, s.opts.TickInterval)
}

func (s *Session) stopTickerLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) runTicker(gen uint64, stop <-chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			cont, submit := s.advance(gen)
			if submit {
				// Finish reports ErrNotInExam if a manual submit got there first.
				if _, err := s.Finish(context.Background(), TriggerTimer); err != nil && err != ErrNotInExam {
					logger.Log.Warn("auto submit on expiry failed", zap.Error(err))
				}
			}
			if !cont {
				return
			}
		}
	}
}

// advance applies one tick. cont is false once this ticker should exit;
// submit is true when the tick reached zero and auto-submit is on.
func (s *Session) advance(gen uint64) (cont, submit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.phase != PhaseInExam {
		return false, false
	}
	_, expired := s.countdown.Tick()
	s.publishLocked(EventTick)
	if !expired {
		return true, false
	}
	logger.Log.Info("mock exam time expired", zap.Bool("autoSubmit", s.opts.AutoSubmitOnExpiry))
	s.stopTickerLocked()
	return false, s.opts.AutoSubmitOnExpiry
}
