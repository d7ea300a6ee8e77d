package orchestrator

import (
	"github.com/ent0n29/contactcenter/internal/stages"
)

const TypeChatResponse = "chat_response"

// Processing paths reported in metadata and metrics.
const (
	PathRemote   = "remote"
	PathFallback = "fallback"
	PathError    = "error"
)

const apologyText = "I'm sorry, something went wrong while handling your request. " +
	"Please try again in a moment, or ask to speak with a service advisor."

// Response is the unified answer handed to HTTP and WebSocket callers.
type Response struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Metadata Metadata `json:"metadata"`
}

// Metadata carries the common fields plus exactly one of the path-specific
// detail blocks. A nil block is omitted from JSON.
type Metadata struct {
	Intent         stages.Category        `json:"intent"`
	Sentiment      stages.SentimentResult `json:"sentiment"`
	ProcessingTime int64                  `json:"processingTime"`
	Fallback       bool                   `json:"fallback"`
	Path           string                 `json:"path"`
	SessionID      string                 `json:"sessionId"`
	Error          bool                   `json:"error,omitempty"`

	*RemoteDetails
	*LocalDetails
}

type RemoteDetails struct {
	Agent       string           `json:"agent"`
	Citations   []map[string]any `json:"citations"`
	Trace       []TraceEntry     `json:"trace"`
	StrandsUsed int              `json:"strandsUsed"`
}

type LocalDetails struct {
	Route           string               `json:"route"`
	Routing         stages.Route         `json:"routing"`
	Confidence      float64              `json:"confidence"`
	Entities        map[string]string    `json:"entities,omitempty"`
	KnowledgeTopics []string             `json:"knowledgeTopics"`
	QuickActions    []stages.QuickAction `json:"quickActions"`
	Suggestions     []string             `json:"suggestions"`
}

func remoteResponse(sessionID string, r *RemoteResult, processingMS int64) Response {
	citations := r.Citations
	if citations == nil {
		citations = []map[string]any{}
	}
	trace := r.Trace
	if trace == nil {
		trace = []TraceEntry{}
	}
	return Response{
		Type:    TypeChatResponse,
		Message: r.Text,
		Metadata: Metadata{
			Intent:         r.Category,
			Sentiment:      r.Sentiment,
			ProcessingTime: processingMS,
			Path:           PathRemote,
			SessionID:      sessionID,
			RemoteDetails: &RemoteDetails{
				Agent:       r.Agent,
				Citations:   citations,
				Trace:       trace,
				StrandsUsed: len(r.StrandIDs),
			},
		},
	}
}

func localResponse(sessionID string, r *LocalResult, processingMS int64) Response {
	out := r.Output
	topics := make([]string, 0, len(out.Knowledge))
	for _, item := range out.Knowledge {
		topics = append(topics, item.Topic)
	}
	return Response{
		Type:    TypeChatResponse,
		Message: out.Reply.Text,
		Metadata: Metadata{
			Intent:         out.Intent.Category,
			Sentiment:      out.Sentiment,
			ProcessingTime: processingMS,
			Fallback:       true,
			Path:           PathFallback,
			SessionID:      sessionID,
			LocalDetails: &LocalDetails{
				Route:           out.Route.Department,
				Routing:         out.Route,
				Confidence:      out.Intent.Confidence,
				Entities:        out.Intent.Entities,
				KnowledgeTopics: topics,
				QuickActions:    out.Reply.QuickActions,
				Suggestions:     out.Reply.Suggestions,
			},
		},
	}
}

func errorResponse(sessionID string, processingMS int64) Response {
	return Response{
		Type:    TypeChatResponse,
		Message: apologyText,
		Metadata: Metadata{
			Intent: stages.CategoryGeneral,
			Sentiment: stages.SentimentResult{
				Sentiment: stages.SentimentNeutral,
				Urgency:   stages.UrgencyNormal,
			},
			ProcessingTime: processingMS,
			Fallback:       true,
			Path:           PathError,
			SessionID:      sessionID,
			Error:          true,
		},
	}
}
