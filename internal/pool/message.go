package pool

import "GridOptimizer/internal/model"

// MessageType tags messages sent from a run back to its caller.
type MessageType string

const (
	MsgProgress       MessageType = "PROGRESS"
	MsgComplete       MessageType = "COMPLETE"
	MsgError          MessageType = "ERROR"
	MsgDetailComplete MessageType = "DETAIL_COMPLETE"
)

// Message is one progress or completion report. RunID lets a consumer drop reports
// belonging to a run it has already abandoned.
type Message struct {
	RunID   string                  `json:"run_id"`
	Type    MessageType             `json:"type"`
	Percent float64                 `json:"percent,omitempty"`
	Text    string                  `json:"message,omitempty"`
	Result  *model.GridResult       `json:"results,omitempty"`
	Err     error                   `json:"-"`
	Details []model.TradeDetail     `json:"details,omitempty"`
	Summary *model.SimulationResult `json:"summary,omitempty"`
}
