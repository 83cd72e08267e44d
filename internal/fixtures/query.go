package fixtures

// ListOptions pages through one collection.
type ListOptions struct {
	Limit  int
	Offset int
}

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	UserID    string
	Status    TransactionStatus
	Category  string
	MinAmount float64
	// Flagged keeps only transactions whose fraud check flagged them.
	Flagged bool
	Limit   int
	Offset  int
}

// SearchOptions narrows a full-text search.
type SearchOptions struct {
	Kinds  []Kind
	Limit  int
	Offset int
}

// SearchResult is one search hit.
type SearchResult struct {
	Item    Item    `json:"item"`
	Rank    float64 `json:"rank"`
	Snippet string  `json:"snippet"`
}
