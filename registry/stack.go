package registry

import (
	"errors"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

// ErrEmptyStack is returned by Shift and Unshift when no player is managed.
var ErrEmptyStack = errors.New("no player is being controlled")

// Stack is the ordered set of managed players, active player first. Order
// holds instances; the arena holds the handles they refer to.
type Stack struct {
	order   []string
	players map[string]*mpris.Player
}

func NewStack() *Stack {
	return &Stack{players: make(map[string]*mpris.Player)}
}

func (s *Stack) Len() int {
	return len(s.order)
}

// Instances returns a copy of the order.
func (s *Stack) Instances() []string {
	return append([]string(nil), s.order...)
}

func (s *Stack) Get(instance string) (*mpris.Player, bool) {
	p, ok := s.players[instance]
	return p, ok
}

// GetByBusName finds a handle from its well-known bus name.
func (s *Stack) GetByBusName(busName string) (*mpris.Player, bool) {
	for _, p := range s.players {
		if p.BusName == busName {
			return p, true
		}
	}
	return nil, false
}

// Head returns the active player.
func (s *Stack) Head() (*mpris.Player, bool) {
	if len(s.order) == 0 {
		return nil, false
	}
	return s.players[s.order[0]], true
}

func (s *Stack) indexOf(instance string) int {
	for i, v := range s.order {
		if v == instance {
			return i
		}
	}
	return -1
}

// Push stores p and makes it the active player. A handle already stored
// for the same instance is replaced.
func (s *Stack) Push(p *mpris.Player) {
	if i := s.indexOf(p.Instance); i >= 0 {
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
	s.players[p.Instance] = p
	s.order = append([]string{p.Instance}, s.order...)
}

// Remove drops instance without reordering the others.
func (s *Stack) Remove(instance string) bool {
	i := s.indexOf(instance)
	if i < 0 {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.players, instance)
	return true
}

// Promote moves instance to the front. It reports whether the order changed.
func (s *Stack) Promote(instance string) bool {
	i := s.indexOf(instance)
	if i <= 0 {
		return false
	}
	copy(s.order[1:i+1], s.order[:i])
	s.order[0] = instance
	return true
}

// Shift moves the active player to the back and returns the new head.
func (s *Stack) Shift() (string, error) {
	if len(s.order) == 0 {
		return "", ErrEmptyStack
	}
	head := s.order[0]
	s.order = append(s.order[1:], head)
	return s.order[0], nil
}

// Unshift moves the last player to the front and returns it.
func (s *Stack) Unshift() (string, error) {
	if len(s.order) == 0 {
		return "", ErrEmptyStack
	}
	last := s.order[len(s.order)-1]
	s.order = append([]string{last}, s.order[:len(s.order)-1]...)
	return last, nil
}

// Snapshot copies the stack for use outside the reactor.
func (s *Stack) Snapshot() Snapshot {
	players := make([]*mpris.Player, 0, len(s.order))
	for _, instance := range s.order {
		players = append(players, s.players[instance].Clone())
	}
	return Snapshot{Players: players}
}

// Snapshot is an immutable copy of the stack, active player first.
type Snapshot struct {
	Players []*mpris.Player
}

func (s Snapshot) Instances() []string {
	out := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p.Instance)
	}
	return out
}

func (s Snapshot) Head() (*mpris.Player, bool) {
	if len(s.Players) == 0 {
		return nil, false
	}
	return s.Players[0], true
}

func (s Snapshot) Get(instance string) (*mpris.Player, bool) {
	for _, p := range s.Players {
		if p.Instance == instance {
			return p, true
		}
	}
	return nil, false
}
