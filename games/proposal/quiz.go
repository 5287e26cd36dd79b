package proposal

import "time"

const (
	CorrectDelay  = 1500 * time.Millisecond
	WrongDelay    = 2000 * time.Millisecond
	RebuttalDelay = 2500 * time.Millisecond

	correctText = "That's right! 🎉"
)

type Question struct {
	Prompt         string
	Options        []string
	Correct        int
	WrongReactions []string

	// Special questions keep one option on screen that can never be chosen.
	// Picking it only ever shows Rebuttal.
	Special  bool
	Disabled int
	Rebuttal string
}

type ReactionKind string

const (
	ReactionCorrect  ReactionKind = "correct"
	ReactionWrong    ReactionKind = "wrong"
	ReactionRebuttal ReactionKind = "rebuttal"
)

type Reaction struct {
	Kind ReactionKind `json:"kind"`
	Text string       `json:"text"`
}

var DefaultQuestions = []Question{
	{
		Prompt:  "If I were a dessert, which one would I be?",
		Options: []string{"Gulab jamun 🍮", "Ice cream 🍦", "Chocolate cake 🍰", "Jalebi 🧡"},
		Correct: 0,
		WrongReactions: []string{
			"No way! I'm much sweeter than that! 😄",
			"Wrong! Try again! 🤭",
			"Oh ho! Think about it! 😅",
		},
	},
	{
		Prompt:  "What would our perfect date be?",
		Options: []string{"Movie 📺", "Fancy restaurant 🍽️", "Beach walk 🌊", "Anything with me 🙈"},
		Correct: 3,
		WrongReactions: []string{
			"Nope! Think harder! 🤔",
			"Wrong answer! Try again! 😜",
			"That won't do! 😂",
		},
	},
	{
		Prompt:   "Which of us loves the other more?",
		Options:  []string{"Me 💖", "You 💕"},
		Correct:  0,
		Special:  true,
		Disabled: 1,
		Rebuttal: "I love you more, so you can't pick this one! 😏",
	},
}

// Quiz walks a fixed list of questions. A showing reaction locks input until
// Settle runs.
type Quiz struct {
	questions []Question
	rng       Rand

	current  int
	score    int
	reaction *Reaction
	done     bool
}

func NewQuiz(questions []Question, rng Rand) *Quiz {
	if len(questions) == 0 {
		questions = DefaultQuestions
	}
	if rng == nil {
		rng = DefaultRand
	}

	return &Quiz{questions: questions, rng: rng}
}

func (q *Quiz) Question() Question {
	return q.questions[q.current]
}

func (q *Quiz) Index() int {
	return q.current
}

func (q *Quiz) Len() int {
	return len(q.questions)
}

func (q *Quiz) Score() int {
	return q.score
}

func (q *Quiz) Reaction() *Reaction {
	return q.reaction
}

func (q *Quiz) Done() bool {
	return q.done
}

// Answer picks an option on the current question. It returns the reaction to
// show and how long to show it, or ok=false when input is locked or the
// option does not exist.
func (q *Quiz) Answer(option int) (r Reaction, delay time.Duration, ok bool) {
	if q.done || q.reaction != nil {
		return Reaction{}, 0, false
	}

	question := q.questions[q.current]
	if option < 0 || option >= len(question.Options) {
		return Reaction{}, 0, false
	}

	switch {
	case question.Special && option == question.Disabled:
		r, delay = Reaction{Kind: ReactionRebuttal, Text: question.Rebuttal}, RebuttalDelay
	case option == question.Correct:
		q.score++
		r, delay = Reaction{Kind: ReactionCorrect, Text: correctText}, CorrectDelay
	default:
		r, delay = Reaction{Kind: ReactionWrong, Text: q.wrongReaction(question)}, WrongDelay
	}

	q.reaction = &r

	return r, delay, true
}

func (q *Quiz) wrongReaction(question Question) string {
	if len(question.WrongReactions) == 0 {
		return "Try again!"
	}
	return question.WrongReactions[q.rng.IntN(len(question.WrongReactions))]
}

// Settle clears the current reaction. After a correct answer it moves to the
// next question, or finishes the quiz and reports the final score.
func (q *Quiz) Settle() (finished bool, score int) {
	if q.reaction == nil {
		return false, q.score
	}

	kind := q.reaction.Kind

	if kind == ReactionCorrect && q.current == len(q.questions)-1 {
		q.done = true
		return true, q.score
	}

	q.reaction = nil
	if kind == ReactionCorrect {
		q.current++
	}

	return false, q.score
}
