package exam

// Answers maps a question id to the learner's answer: a letter for choice
// questions, free text otherwise.
type Answers struct {
	m map[uint]string
}

// Set inserts or overwrites the answer.
func (a *Answers) Set(questionID uint, value string) {
	if a.m == nil {
		a.m = make(map[uint]string)
	}
	a.m[questionID] = value
}

func (a *Answers) Get(questionID uint) (string, bool) {
	v, ok := a.m[questionID]
	return v, ok
}

// Count is the number of answered questions.
func (a *Answers) Count() int {
	return len(a.m)
}

func (a *Answers) Reset() {
	a.m = nil
}

// Snapshot copies the map so it can leave the session lock.
func (a *Answers) Snapshot() map[uint]string {
	out := make(map[uint]string, len(a.m))
	for k, v := range a.m {
		out[k] = v
	}
	return out
}
