package store

import "sort"

// Registry maps entity tokens to the DynamoDB tables holding them.
type Registry struct {
	tables map[string]string
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]string),
	}
}

// Register stores records of entityToken in table. Registering the same
// entity again replaces its table.
func (r *Registry) Register(entityToken, table string) {
	r.tables[entityToken] = table
}

// TableFor returns the table registered for entityToken.
func (r *Registry) TableFor(entityToken string) (string, bool) {
	table, ok := r.tables[entityToken]
	return table, ok
}

// Entities returns all registered entity tokens, sorted.
func (r *Registry) Entities() []string {
	tokens := make([]string, 0, len(r.tables))
	for token := range r.tables {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
