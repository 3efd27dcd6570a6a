package exam

import "errors"

var (
	ErrBusy            = errors.New("a mock exam is already loading or in progress")
	ErrNotInExam       = errors.New("no mock exam in progress")
	ErrNoAnswers       = errors.New("answer at least one question before submitting")
	ErrUnknownQuestion = errors.New("question is not part of the current mock exam")
	ErrUnknownOption   = errors.New("option does not belong to the question")
	ErrWrongAnswerKind = errors.New("answer kind does not match the question type")
	ErrStaleResponse   = errors.New("response belongs to a superseded exam session")
	ErrPageOutOfRange  = errors.New("page index out of range")
	ErrSessionClosed   = errors.New("exam session closed")
)
