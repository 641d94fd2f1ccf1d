package internal

// WarningPrefix marks assistant text replaced by an error
const WarningPrefix = "⚠️ "

// ApplyEvent returns the transcript with ev applied to the assistant message
// targetID. Token events append their fragment; failure events replace the
// message text with a warning. The input transcript is not modified, and an
// unknown target leaves the transcript unchanged.
func ApplyEvent(t Transcript, targetID string, ev StreamEvent) Transcript {
	switch {
	case ev.Kind == EventToken:
		return updateMessage(t, targetID, func(msg *Message) {
			msg.Text += ev.Data
		})
	case ev.Kind.IsFailure():
		text := ev.Message
		if ev.Kind == EventParseFailure && text == "" {
			text = ParseFailureText
		}
		return updateMessage(t, targetID, func(msg *Message) {
			msg.Text = WarningPrefix + text
		})
	default:
		return t
	}
}

func updateMessage(t Transcript, id string, fn func(*Message)) Transcript {
	i := t.Find(id)
	if i < 0 {
		return t
	}
	out := t.Clone()
	fn(&out.Messages[i])
	return out
}
