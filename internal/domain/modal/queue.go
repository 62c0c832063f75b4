package modal

// Dismiss labels.
const (
	CloseLabel  = "Close"
	CancelLabel = "Cancel"
)

// Action is a button callback.
type Action func()

// Message is one entry of the queue.
type Message struct {
	Text string
	No   Action
	Yes  Action
}

// Equal reports whether two messages collapse into one. Actions are ignored.
func (m Message) Equal(other Message) bool {
	return m.Text != "" && m.Text == other.Text
}

// Input is one frame of user input directed at the visible message.
type Input int

const (
	InputNone Input = iota
	InputSubmit
	InputDelete
	InputCancel
)

// ParseInput maps an input name to an Input.
func ParseInput(s string) (Input, bool) {
	switch s {
	case "", "none":
		return InputNone, true
	case "submit":
		return InputSubmit, true
	case "delete":
		return InputDelete, true
	case "cancel":
		return InputCancel, true
	}
	return InputNone, false
}

// View is what a front end renders for the visible message.
type View struct {
	Text         string `json:"text"`
	HasYes       bool   `json:"has_yes"`
	HasNo        bool   `json:"has_no"`
	DismissLabel string `json:"dismiss_label"`
}

// Queue holds the visible message and the ones waiting behind it.
type Queue struct {
	visible   bool
	current   Message
	view      View
	pending   []Message
	justShown bool
	observer  func(pending int)
}

// NewQueue creates an empty, hidden queue.
func NewQueue() *Queue {
	return &Queue{}
}

// WithObserver registers a callback invoked with the waiting count after every change.
func (q *Queue) WithObserver(fn func(pending int)) *Queue {
	q.observer = fn
	return q
}

// Show displays a plain notification.
func (q *Queue) Show(text string) {
	q.Prompt(text, nil)
}

// Prompt displays a message with a single confirm action.
func (q *Queue) Prompt(text string, yes Action) {
	q.Ask(text, nil, yes)
}

// Ask displays a message with no/yes actions, or queues it behind the visible one.
func (q *Queue) Ask(text string, no, yes Action) {
	msg := Message{Text: text, No: no, Yes: yes}
	if q.visible {
		if !q.contains(msg) {
			q.pending = append(q.pending, msg)
			q.notify()
		}
		return
	}
	q.visible = true
	q.display(msg)
}

// Close dismisses the visible message and shows the next one, if any.
func (q *Queue) Close() {
	if len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = Message{}
		q.pending = q.pending[1:]
		q.display(next)
		q.notify()
		return
	}
	q.visible = false
	q.current = Message{}
	q.view = View{}
	q.justShown = false
	q.notify()
}

// Yes presses the confirm button. The message closes before the action runs,
// so the action may ask the same question again.
func (q *Queue) Yes() {
	if !q.visible {
		return
	}
	yes := q.current.Yes
	q.Close()
	if yes != nil {
		yes()
	}
}

// No presses the decline button.
func (q *Queue) No() {
	if !q.visible {
		return
	}
	no := q.current.No
	q.Close()
	if no != nil {
		no()
	}
}

// Update processes one input frame and reports whether the input was consumed.
// The first frame after a message appears is ignored so the input that caused
// it cannot also dismiss it.
func (q *Queue) Update(in Input) bool {
	if !q.visible {
		return false
	}
	if q.justShown {
		q.justShown = false
		return false
	}

	switch in {
	case InputSubmit:
		if q.current.Yes != nil {
			q.Yes()
		} else {
			q.Close()
		}
		return true
	case InputDelete:
		if q.current.No != nil {
			q.No()
			return true
		}
	case InputCancel:
		q.Close()
		return true
	}
	return false
}

// Visible reports whether a message is on screen.
func (q *Queue) Visible() bool {
	return q.visible
}

// Current returns the visible message's view.
func (q *Queue) Current() (View, bool) {
	return q.view, q.visible
}

// Pending returns how many messages wait behind the visible one.
func (q *Queue) Pending() int {
	return len(q.pending)
}

func (q *Queue) display(msg Message) {
	q.current = msg
	q.view = View{
		Text:         msg.Text,
		HasYes:       msg.Yes != nil,
		HasNo:        msg.No != nil,
		DismissLabel: CancelLabel,
	}
	if msg.Yes == nil && msg.No == nil {
		q.view.DismissLabel = CloseLabel
	}
	q.justShown = true
}

func (q *Queue) contains(msg Message) bool {
	if msg.Equal(q.current) {
		return true
	}
	for _, m := range q.pending {
		if msg.Equal(m) {
			return true
		}
	}
	return false
}

func (q *Queue) notify() {
	if q.observer != nil {
		q.observer(len(q.pending))
	}
}
