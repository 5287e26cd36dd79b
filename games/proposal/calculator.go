package proposal

import "time"

const (
	CalculatorTick   = 800 * time.Millisecond
	CalculatorReveal = 4500 * time.Millisecond
	CalculatorStep   = 20 * time.Millisecond

	calculatorIncrement = 2
	calculatorTarget    = 100
)

var DefaultLoadingMessages = []string{
	"Calculating compatibility... 💕",
	"Analyzing chemistry... 🧪",
	"Measuring cuteness levels... 🥰",
	"Checking heart signals... 💓",
	"Processing love data... 📊",
	"Almost there... ✨",
}

// Calculator is the fake compatibility meter: a spell of loading messages,
// then a percentage counting up to 100.
type Calculator struct {
	messages   []string
	index      int
	loading    bool
	percentage int
}

func NewCalculator(messages []string) *Calculator {
	if len(messages) == 0 {
		messages = DefaultLoadingMessages
	}

	return &Calculator{messages: messages, loading: true}
}

func (c *Calculator) Message() string {
	return c.messages[c.index]
}

func (c *Calculator) Loading() bool {
	return c.loading
}

func (c *Calculator) Percentage() int {
	return c.percentage
}

// Tick shows the next loading message.
func (c *Calculator) Tick() {
	if !c.loading {
		return
	}
	c.index = (c.index + 1) % len(c.messages)
}

func (c *Calculator) Reveal() {
	c.loading = false
}

// Step raises the percentage and reports whether it has more to go.
func (c *Calculator) Step() bool {
	if c.loading {
		return true
	}

	c.percentage = min(c.percentage+calculatorIncrement, calculatorTarget)

	return c.percentage < calculatorTarget
}
