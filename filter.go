package wsrooms

// Filter selects connections during filtered fan-out. It is evaluated
// per connection, independently, at the time of that connection's own
// send; there is no snapshot consistency across connections.
type Filter interface {
	Matches(c Connection) bool
}

// FilterFunc adapts a plain function to a Filter.
type FilterFunc func(c Connection) bool

func (f FilterFunc) Matches(c Connection) bool {
	return f(c)
}

// HasID matches the connection with the given id.
func HasID(id string) Filter {
	return FilterFunc(func(c Connection) bool {
		return c.id == id
	})
}

func not(f Filter) Filter {
	return FilterFunc(func(c Connection) bool {
		return !f.Matches(c)
	})
}
