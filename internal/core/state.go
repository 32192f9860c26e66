package core

import "sort"

// State tracks joined channels and the focused channel.
// It is owned by the Router goroutine and is not safe for concurrent use.
type State struct {
	joined  map[string]struct{}
	current string
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Current  string   `json:"current"`
	Channels []string `json:"channels"`
}

// NewState constructs an empty state with no focused channel.
func NewState() *State {
	return &State{joined: make(map[string]struct{})}
}

// Join records channel as joined and focuses it. Returns true if newly added.
func (s *State) Join(channel string) bool {
	_, exists := s.joined[channel]
	s.joined[channel] = struct{}{}
	s.current = channel
	return !exists
}

// Focus moves focus to an already joined channel. Returns false if the
// channel has not been joined, leaving the state untouched.
func (s *State) Focus(channel string) bool {
	if !s.Joined(channel) {
		return false
	}
	s.current = channel
	return true
}

// Joined reports whether channel has been joined.
func (s *State) Joined(channel string) bool {
	_, ok := s.joined[channel]
	return ok
}

// Current returns the focused channel, if any.
func (s *State) Current() (string, bool) {
	return s.current, s.current != ""
}

// Channels returns the joined channels in sorted order.
func (s *State) Channels() []string {
	channels := make([]string, 0, len(s.joined))
	for ch := range s.joined {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// Snapshot copies the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{Current: s.current, Channels: s.Channels()}
}
