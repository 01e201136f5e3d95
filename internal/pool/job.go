package pool

import (
	"context"

	"GridOptimizer/internal/model"
)

// Job is a running grid. Messages must be drained or the job cancelled.
type Job struct {
	ID     string
	msgs   chan Message
	cancel context.CancelFunc
}

// Messages returns the run's message stream. It is closed when the run ends.
func (j *Job) Messages() <-chan Message { return j.msgs }

// Cancel abandons the run. No COMPLETE or ERROR message follows.
func (j *Job) Cancel() { j.cancel() }

func (j *Job) send(ctx context.Context, m Message) {
	m.RunID = j.ID
	select {
	case j.msgs <- m:
	case <-ctx.Done():
	}
}

// Wait drains the job, passing progress messages to onProgress, and returns the merged
// grid. It returns ctx.Err() if ctx ends first and context.Canceled if the job was
// cancelled elsewhere.
func (j *Job) Wait(ctx context.Context, onProgress func(Message)) (*model.GridResult, error) {
	for {
		select {
		case <-ctx.Done():
			j.Cancel()
			return nil, ctx.Err()
		case m, ok := <-j.msgs:
			if !ok {
				return nil, context.Canceled
			}
			switch m.Type {
			case MsgProgress:
				if onProgress != nil {
					onProgress(m)
				}
			case MsgComplete:
				return m.Result, nil
			case MsgError:
				return nil, m.Err
			}
		}
	}
}
