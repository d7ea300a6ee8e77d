package orchestrator

import (
	"time"

	"github.com/ent0n29/contactcenter/internal/stages"
)

// Turn is the input of a strategy: one customer message plus a snapshot of
// the session it belongs to.
type Turn struct {
	SessionID  string
	Message    string
	LastIntent stages.Category
	Profile    stages.Profile
	// History ends with Message.
	History []stages.Turn
}

// Result is what a strategy produced for a turn. It is either a
// *RemoteResult or a *LocalResult.
type Result interface {
	Reply() string
	Intent() stages.Category
	isResult()
}

// TraceEntry is the client-safe view of one remote strand execution.
type TraceEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Stage     string    `json:"stage"`
}

// RemoteResult is produced by the remote agent path.
type RemoteResult struct {
	Text      string
	Category  stages.Category
	Sentiment stages.SentimentResult
	Citations []map[string]any
	Trace     []TraceEntry
	StrandIDs []string
	Agent     string
}

func (*RemoteResult) isResult() {}

func (r *RemoteResult) Reply() string { return r.Text }

func (r *RemoteResult) Intent() stages.Category { return r.Category }

// LocalResult is produced by the local stage pipeline.
type LocalResult struct {
	Output stages.PipelineOutput
}

func (*LocalResult) isResult() {}

func (r *LocalResult) Reply() string { return r.Output.Reply.Text }

func (r *LocalResult) Intent() stages.Category { return r.Output.Intent.Category }
