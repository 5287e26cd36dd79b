package proposal

// Message is shown each time the decline button gets away.
type Message struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

var DefaultTeases = []Message{
	{Text: "Don't do this to me, I'll be heartbroken.", Emoji: "🥺"},
	{Text: "Think of everyone who is rooting for us.", Emoji: "🌸"},
	{Text: "Please just say yes.", Emoji: "🙏"},
	{Text: "Careful, you're about to break a heart.", Emoji: "💔"},
	{Text: "Saying no has consequences, you know.", Emoji: "😅"},
	{Text: "What's Valentine's Day without you?", Emoji: "🎈"},
	{Text: "That button doesn't work. Only yes does!", Emoji: "😏"},
	{Text: "Turning down an offer this sweet? Think again!", Emoji: "🌟"},
}

// Rotation cycles through a fixed catalog. Its index only ever grows.
type Rotation struct {
	catalog []Message
	index   int
}

func NewRotation(catalog []Message) *Rotation {
	if len(catalog) == 0 {
		catalog = DefaultTeases
	}

	return &Rotation{catalog: catalog}
}

// Advance bumps the index by one and returns the message at the new index.
func (r *Rotation) Advance() Message {
	r.index++

	return r.catalog[r.index%len(r.catalog)]
}

func (r *Rotation) Index() int {
	return r.index
}
