package types

// Solution - результат одной модели по одному вопросу.
type Solution struct {
	Steps       []string `json:"steps"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// Solved reports whether the solution has both steps and an answer.
func (s Solution) Solved() bool {
	return len(s.Steps) > 0 && s.Answer != ""
}

// Stage marks the point of the pipeline a snapshot was taken at.
type Stage string

const (
	StageQuestion  Stage = "question"
	StageSolved    Stage = "solved"
	StageExplained Stage = "explained"
	StageFinal     Stage = "final"
	StageFailed    Stage = "failed"
)

// Snapshot - видимое снаружи состояние конвейера на очередном этапе.
type Snapshot struct {
	RunID       string `json:"run_id,omitempty"`
	Stage       Stage  `json:"stage"`
	Model       string `json:"model,omitempty"`
	Question    string `json:"question"`
	Steps       string `json:"steps"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}
