package core

type (
	// CategoryTotal is one row of the per-category aggregation: the sum of
	// a user's expense amounts sharing the same category string.
	CategoryTotal struct {
		Category string `json:"category"`
		Total    Money  `json:"total"`
	}

	// MonthTotal is one row of the per-month aggregation, keyed by the
	// year-month extracted from the expense date.
	MonthTotal struct {
		Month Month `json:"month"`
		Total Money `json:"total"`
	}
)
