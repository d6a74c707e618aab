package history

// QuizSummary is one completed quiz attempt. Date is epoch milliseconds and
// Duration is in seconds.
type QuizSummary struct {
	ID         string       `json:"id"`
	Date       int64        `json:"date"`
	Score      int          `json:"score"`
	Total      int          `json:"total"`
	Accuracy   float64      `json:"accuracy"`
	Duration   int          `json:"duration"`
	Difficulty string       `json:"difficulty"`
	Regions    []string     `json:"regions"`
	Countries  []string     `json:"countries"`
	Results    []ItemResult `json:"results"`
}

// ItemResult records whether a single port was answered correctly.
type ItemResult struct {
	Port      string `json:"port"`
	IsCorrect bool   `json:"isCorrect"`
}

type PortStats struct {
	Port     string  `json:"port"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type DifficultyStats struct {
	Difficulty  string  `json:"difficulty"`
	Count       int     `json:"count"`
	AvgAccuracy float64 `json:"avgAccuracy"`
}

// Aggregates holds the raw stats rows read from storage. Ports are ordered by
// attempts, most first.
type Aggregates struct {
	AverageAccuracy float64
	Difficulties    []DifficultyStats
	Ports           []PortStats
}

// Summary is the aggregate view shown next to the history list.
type Summary struct {
	AverageAccuracy float64                    `json:"averageAccuracy"`
	ByDifficulty    map[string]DifficultyStats `json:"byDifficulty"`
	Weakest         []PortStats                `json:"weakest"`
	Strongest       []PortStats                `json:"strongest"`
}
