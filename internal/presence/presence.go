// Package presence holds the bot's externally visible status text, the
// "BTC @ $97,000"-style line published by the presence ticker.
package presence

import "sync/atomic"

// State is the process-wide presence text. Writes replace the whole string
// atomically; readers never see a partial update.
type State struct {
	text atomic.Value
}

func NewState() *State {
	s := &State{}
	s.text.Store("")
	return s
}

// PublishPresence overwrites the status text.
func (s *State) PublishPresence(text string) {
	s.text.Store(text)
}

// Text returns the last published status, or "" before the first tick.
func (s *State) Text() string {
	return s.text.Load().(string)
}
