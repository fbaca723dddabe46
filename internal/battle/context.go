package battle

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hexfront/engine/internal/cache"
	"github.com/hexfront/engine/internal/rules"
	"github.com/hexfront/engine/pkg/core"
)

var (
	// ErrOccupied is returned when a unit would share a hex with another living unit
	ErrOccupied = errors.New("hex occupied")
	// ErrUnknownUnit is returned for ids that are not in the roster
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrOutOfGrid is returned for hexes outside the map
	ErrOutOfGrid = errors.New("hex outside grid")
)

// Context holds the simulation state of one game: grid, roster, clock and combat markers.
// Methods are not synchronized; callers hold Lock for the duration of a phase.
type Context struct {
	mu sync.Mutex

	Grid        *core.Grid
	GameMinutes float64
	LastCombat  float64
	// Sequence is the last snapshot number sent by the authority or applied by the follower
	Sequence uint64
	GameOver bool
	Winner   core.Side

	units       map[int]*core.Unit
	occupancy   *cache.OccupancyCache
	combatHexes map[core.Hex]bool
	nextID      int
}

// NewContext creates a Context over grid with an empty roster
func NewContext(grid *core.Grid) *Context {
	return &Context{
		Grid:        grid,
		units:       make(map[int]*core.Unit),
		occupancy:   cache.NewOccupancyCache(),
		combatHexes: make(map[core.Hex]bool),
	}
}

// Lock acquires the context for one phase
func (c *Context) Lock() {
	c.mu.Lock()
}

// Unlock releases the context
func (c *Context) Unlock() {
	c.mu.Unlock()
}

// NextID returns the next unused unit id
func (c *Context) NextID() int {
	return c.nextID
}

// Add places u in the roster. Units with health <= 0 are rejected.
func (c *Context) Add(u *core.Unit) error {
	if !u.Alive() {
		return fmt.Errorf("add unit %d: health %.2f", u.ID, u.Health)
	}
	if !c.Grid.Contains(u.Pos) {
		return fmt.Errorf("add unit %d at %s: %w", u.ID, u.Pos, ErrOutOfGrid)
	}
	if _, exists := c.units[u.ID]; exists {
		return fmt.Errorf("add unit %d: duplicate id", u.ID)
	}
	if !c.occupancy.Claim(u.Pos, u.ID) {
		return fmt.Errorf("add unit %d at %s: %w", u.ID, u.Pos, ErrOccupied)
	}
	c.units[u.ID] = u
	if u.ID >= c.nextID {
		c.nextID = u.ID + 1
	}
	return nil
}

// Unit returns the unit with id
func (c *Context) Unit(id int) (*core.Unit, bool) {
	u, ok := c.units[id]
	return u, ok
}

// Units returns the roster sorted by id
func (c *Context) Units() []*core.Unit {
	out := make([]*core.Unit, 0, len(c.units))
	for _, u := range c.units {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b *core.Unit) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Living returns the units with health > 0, sorted by id
func (c *Context) Living() []*core.Unit {
	all := c.Units()
	out := all[:0]
	for _, u := range all {
		if u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// Side returns the living units of side, sorted by id
func (c *Context) Side(side core.Side) []*core.Unit {
	var out []*core.Unit
	for _, u := range c.Living() {
		if u.Side == side {
			out = append(out, u)
		}
	}
	return out
}

// Count returns the number of living units per side
func (c *Context) Count() map[core.Side]int {
	out := map[core.Side]int{core.Blue: 0, core.Red: 0}
	for _, u := range c.units {
		if u.Alive() {
			out[u.Side]++
		}
	}
	return out
}

// UnitAt returns the living unit standing on h
func (c *Context) UnitAt(h core.Hex) (*core.Unit, bool) {
	id, ok := c.occupancy.Get(h)
	if !ok {
		return nil, false
	}
	u, ok := c.units[id]
	if !ok || !u.Alive() {
		return nil, false
	}
	return u, true
}

// MoveUnit moves unit id onto to, recording the hex it left as previous
func (c *Context) MoveUnit(id int, to core.Hex) error {
	u, ok := c.units[id]
	if !ok {
		return fmt.Errorf("move unit %d: %w", id, ErrUnknownUnit)
	}
	if !c.Grid.Contains(to) {
		return fmt.Errorf("move unit %d to %s: %w", id, to, ErrOutOfGrid)
	}
	if holder, ok := c.occupancy.Get(to); ok && holder != id {
		if other, ok := c.units[holder]; ok && other.Alive() {
			return fmt.Errorf("move unit %d to %s: %w", id, to, ErrOccupied)
		}
		c.occupancy.Release(to, holder)
	}
	c.occupancy.Release(u.Pos, id)
	c.occupancy.Claim(to, id)
	u.Previous = u.Pos
	u.Pos = to
	return nil
}

// Damage lowers the health of unit id, flooring at zero. It reports whether the unit died.
// Dead units are not removed here so that callers can report them before calling Remove.
func (c *Context) Damage(id int, amount float64) (float64, bool) {
	u, ok := c.units[id]
	if !ok || !u.Alive() || amount <= 0 {
		return 0, false
	}
	loss := min(amount, u.Health)
	u.Health -= loss
	if u.Health <= 0 {
		u.Health = 0
		return loss, true
	}
	return loss, false
}

// Heal raises the health of unit id, capped at the maximum for its type
func (c *Context) Heal(id int, amount float64) float64 {
	u, ok := c.units[id]
	if !ok || !u.Alive() || amount <= 0 {
		return 0
	}
	limit := rules.MaxHealth(u.Type)
	gain := min(amount, limit-u.Health)
	if gain <= 0 {
		return 0
	}
	u.Health += gain
	return gain
}

// Remove drops unit id from the roster and frees its hex
func (c *Context) Remove(id int) (*core.Unit, bool) {
	u, ok := c.units[id]
	if !ok {
		return nil, false
	}
	c.occupancy.Release(u.Pos, id)
	delete(c.units, id)
	return u, true
}

// ReplaceUnits rebuilds the roster from units. Dead units are skipped and stacked units
// after the first on a hex are rejected.
func (c *Context) ReplaceUnits(units []*core.Unit) error {
	c.units = make(map[int]*core.Unit, len(units))
	c.occupancy.Reset()
	var errs []error
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		if err := c.Add(u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Advance moves the game clock forward
func (c *Context) Advance(minutes float64) {
	if minutes > 0 {
		c.GameMinutes += minutes
	}
}

// ClearCombatHexes forgets the hexes marked in the previous interval
func (c *Context) ClearCombatHexes() {
	clear(c.combatHexes)
}

// MarkCombat flags h as part of an engagement
func (c *Context) MarkCombat(h core.Hex) {
	c.combatHexes[h] = true
}

// CombatHexes returns the flagged hexes in row/col order
func (c *Context) CombatHexes() []core.Hex {
	out := make([]core.Hex, 0, len(c.combatHexes))
	for h := range c.combatHexes {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b core.Hex) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	return out
}

// SetCombatHexes replaces the flagged hexes
func (c *Context) SetCombatHexes(hexes []core.Hex) {
	clear(c.combatHexes)
	for _, h := range hexes {
		c.combatHexes[h] = true
	}
}

// End marks the game over in favor of winner. Later calls are ignored.
func (c *Context) End(winner core.Side) bool {
	if c.GameOver {
		return false
	}
	c.GameOver = true
	c.Winner = winner
	return true
}

// Snapshot captures the current state under sequence number seq
func (c *Context) Snapshot(seq uint64, withMap bool) core.Snapshot {
	units := c.Living()
	states := make([]core.UnitState, 0, len(units))
	for _, u := range units {
		states = append(states, u.State())
	}
	s := core.Snapshot{
		SequenceNumber:    seq,
		GameTimeInMinutes: c.GameMinutes,
		Rows:              c.Grid.Rows,
		Cols:              c.Grid.Cols,
		Units:             states,
		CombatHexes:       c.CombatHexes(),
	}
	if withMap {
		s.Map = c.Grid.Cells
	}
	return s
}
