package proposal

// View is the snapshot of a session sent to every connected browser.
type View struct {
	Stage    Stage  `json:"stage"`
	Person   string `json:"person"`
	Terminal bool   `json:"terminal"`

	Decline DeclineView `json:"decline"`
	Message *Message    `json:"message,omitempty"`

	Quiz       *QuizView       `json:"quiz,omitempty"`
	Calculator *CalculatorView `json:"calculator,omitempty"`

	Gifts          []string   `json:"gifts,omitempty"`
	Gift           GiftChoice `json:"gift"`
	GiftError      string     `json:"gift_error,omitempty"`
	SignatureError string     `json:"signature_error,omitempty"`
	SubmitError    string     `json:"submit_error,omitempty"`
	Submitting     bool       `json:"submitting"`

	Score   int      `json:"score"`
	Summary *Summary `json:"summary,omitempty"`
}

// DeclineView places the decline button. Until it first runs away it sits
// inline next to the accept button.
type DeclineView struct {
	Position
	Floating bool `json:"floating"`
}

type QuizView struct {
	Number   int       `json:"number"`
	Total    int       `json:"total"`
	Prompt   string    `json:"prompt"`
	Options  []string  `json:"options"`
	Disabled int       `json:"disabled"`
	Reaction *Reaction `json:"reaction,omitempty"`
	Locked   bool      `json:"locked"`
}

type CalculatorView struct {
	Loading    bool   `json:"loading"`
	Message    string `json:"message,omitempty"`
	Percentage int    `json:"percentage"`
}

type Summary struct {
	Person string `json:"person"`
	Gift   string `json:"gift"`
	Score  int    `json:"score"`
}

func (s *Session) View() View {
	stage := s.Stage()

	v := View{
		Stage:    stage,
		Person:   s.opts.Person,
		Terminal: s.seq.Terminal(),
		Decline: DeclineView{
			Position: s.decline,
			Floating: s.evaded,
		},
		Message: s.message,
		Score:   s.score,
	}

	switch stage {
	case StageQuiz:
		q := s.quiz.Question()
		disabled := -1
		if q.Special {
			disabled = q.Disabled
		}

		v.Quiz = &QuizView{
			Number:   s.quiz.Index() + 1,
			Total:    s.quiz.Len(),
			Prompt:   q.Prompt,
			Options:  q.Options,
			Disabled: disabled,
			Reaction: s.quiz.Reaction(),
			Locked:   s.quiz.Reaction() != nil,
		}

	case StageCalculator:
		v.Calculator = &CalculatorView{
			Loading:    s.calc.Loading(),
			Percentage: s.calc.Percentage(),
		}
		if s.calc.Loading() {
			v.Calculator.Message = s.calc.Message()
		}

	case StageGift:
		v.Gifts = s.opts.Gifts
		v.Gift = s.gift
		v.GiftError = s.giftError

	case StagePermission:
		v.Gift = s.gift
		v.SignatureError = s.signatureError
		v.SubmitError = s.submitError
		v.Submitting = s.submitting

	case StageSuccess:
		if s.submission != nil {
			v.Summary = &Summary{
				Person: s.submission.Person,
				Gift:   s.submission.Gift(),
				Score:  s.score,
			}
		}
	}

	return v
}

// ViewIn is View for one screen: the decline button is clamped into v so it
// stays reachable whatever size the screen that moved it had.
func (s *Session) ViewIn(v Viewport) View {
	view := s.View()
	if v.Width > 0 && v.Height > 0 {
		view.Decline.Position = s.positions.Clamp(v, view.Decline.Position)
	}

	return view
}
