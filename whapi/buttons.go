package whapi

// Button is a single quick-reply button on an interactive message.
type Button struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Markup is an ordered list of quick-reply buttons (the gateway caps it at
// three per message).
type Markup struct {
	Buttons []Button `json:"buttons"`
}

func QuickReply(title, id string) Button {
	return Button{Type: "quick_reply", Title: title, ID: id}
}

func NewMarkup(buttons ...Button) *Markup {
	return &Markup{Buttons: buttons}
}
