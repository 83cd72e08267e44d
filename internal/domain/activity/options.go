package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	AgentTypes  []AgentType
	Statuses    []Status
	NewestFirst bool
	Limit       int
	Offset      int
}

// Filter returns the records matching opts. Insertion order is kept unless
// NewestFirst is set.
func Filter(records []Record, opts ListOptions) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if len(opts.AgentTypes) > 0 && !containsAgent(opts.AgentTypes, r.AgentType) {
			continue
		}
		if len(opts.Statuses) > 0 && !containsStatus(opts.Statuses, r.Status) {
			continue
		}
		out = append(out, r)
	}

	if opts.NewestFirst {
		reverse(out)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Record{}
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func containsAgent(list []AgentType, a AgentType) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// reverse flips insertion order. Records are appended as work happens, so
// the tail is the most recent.
func reverse(records []Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
