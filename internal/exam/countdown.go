package exam

// Countdown holds the remaining seconds of a timed exam.
type Countdown struct {
	remaining int
}

func NewCountdown(limitMinutes int) Countdown {
	if limitMinutes <= 0 {
		return Countdown{}
	}
	return Countdown{remaining: limitMinutes * 60}
}

// Tick removes one second. expired is true only on the tick that reaches
// zero; ticks after that leave the counter at zero and report false.
func (c *Countdown) Tick() (remaining int, expired bool) {
	if c.remaining <= 0 {
		c.remaining = 0
		return 0, false
	}
	c.remaining--
	return c.remaining, c.remaining == 0
}

func (c Countdown) Remaining() int {
	return c.remaining
}
