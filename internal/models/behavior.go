package models

// Behavior is a catalog entry describing a named, point-valued classroom action.
// Entries are defined at build time and never mutated at runtime.
type Behavior struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Color  string `json:"color"`
}

// IsPositive reports whether awarding this behavior adds points.
func (b Behavior) IsPositive() bool {
	return b.Points > 0
}

// Catalog is an immutable set of behaviors split by polarity. It is injected
// into services as a value so tests can swap in alternative catalogs.
type Catalog struct {
	positive []Behavior
	negative []Behavior
	byID     map[string]Behavior
}

// NewCatalog builds a catalog from the provided entries. Zero-point entries
// are skipped; polarity is derived from the sign of the point delta.
func NewCatalog(behaviors []Behavior) Catalog {
	c := Catalog{byID: make(map[string]Behavior, len(behaviors))}
	for _, b := range behaviors {
		if b.Points == 0 {
			continue
		}
		if _, exists := c.byID[b.ID]; exists {
			continue
		}
		c.byID[b.ID] = b
		if b.IsPositive() {
			c.positive = append(c.positive, b)
		} else {
			c.negative = append(c.negative, b)
		}
	}
	return c
}

// ListPositive returns the positive behaviors in catalog order.
func (c Catalog) ListPositive() []Behavior {
	out := make([]Behavior, len(c.positive))
	copy(out, c.positive)
	return out
}

// ListNegative returns the negative behaviors in catalog order.
func (c Catalog) ListNegative() []Behavior {
	out := make([]Behavior, len(c.negative))
	copy(out, c.negative)
	return out
}

// Find looks up a behavior by id.
func (c Catalog) Find(id string) (Behavior, bool) {
	b, ok := c.byID[id]
	return b, ok
}

// DefaultCatalog returns the built-in classroom behavior set.
func DefaultCatalog() Catalog {
	return NewCatalog([]Behavior{
		{ID: "helping-others", Name: "Helping others", Points: 2, Color: "green"},
		{ID: "great-listening", Name: "Great listening", Points: 1, Color: "teal"},
		{ID: "teamwork", Name: "Working well in a team", Points: 2, Color: "blue"},
		{ID: "on-task", Name: "Staying on task", Points: 1, Color: "cyan"},
		{ID: "participating", Name: "Participating in class", Points: 1, Color: "indigo"},
		{ID: "kindness", Name: "Showing kindness", Points: 3, Color: "pink"},
		{ID: "perseverance", Name: "Perseverance", Points: 2, Color: "purple"},
		{ID: "leadership", Name: "Showing leadership", Points: 3, Color: "gold"},

		{ID: "talking-out-of-turn", Name: "Talking out of turn", Points: -1, Color: "orange"},
		{ID: "off-task", Name: "Off task", Points: -1, Color: "amber"},
		{ID: "disrespect", Name: "Disrespectful behavior", Points: -3, Color: "red"},
		{ID: "unprepared", Name: "Unprepared for class", Points: -1, Color: "brown"},
		{ID: "interrupting", Name: "Interrupting the lesson", Points: -2, Color: "maroon"},
		{ID: "not-following-directions", Name: "Not following directions", Points: -2, Color: "crimson"},
		{ID: "incomplete-homework", Name: "Incomplete homework", Points: -2, Color: "gray"},
		{ID: "rough-play", Name: "Rough play", Points: -3, Color: "darkred"},
	})
}
