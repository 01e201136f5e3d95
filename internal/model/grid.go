package model

// TaskType names the axes a grid is laid out on.
type TaskType string

const (
	TaskThreshold  TaskType = "threshold"   // rows: buy threshold, cols: sell threshold
	TaskSymmetric  TaskType = "symmetric"   // rows: condition count, cols: threshold magnitude
	TaskBuyRefine  TaskType = "buy_refine"  // rows: buy lookback, cols: buy threshold
	TaskSellRefine TaskType = "sell_refine" // rows: sell lookback, cols: sell threshold
)

// Cell addresses one grid cell.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GridResult is the matrix of results for one grid run.
type GridResult struct {
	Task      TaskType             `json:"task"`
	Rows      []float64            `json:"rows"`
	Cols      []float64            `json:"cols"`
	Results   [][]SimulationResult `json:"results"`
	MinReturn float64              `json:"min_return"`
	MaxReturn float64              `json:"max_return"`
	Best      Cell                 `json:"best"`
}

// At returns the result at the given cell.
func (g *GridResult) At(c Cell) SimulationResult {
	return g.Results[c.Row][c.Col]
}

// CellCount returns rows*cols.
func (g *GridResult) CellCount() int {
	return len(g.Rows) * len(g.Cols)
}

// Source names the phase a baseline or saved configuration came from.
type Source string

const (
	SourcePhase1  Source = "phase1"
	SourcePhase2A Source = "phase2a"
	SourcePhase2B Source = "phase2b"
)

// PhaseBaseline is the selected cell carried from one phase into the next.
type PhaseBaseline struct {
	Source Source           `json:"source"`
	Config SimulationConfig `json:"config"`
	Result SimulationResult `json:"result"`
}
