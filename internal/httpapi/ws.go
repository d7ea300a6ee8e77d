package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ent0n29/contactcenter/internal/orchestrator"
	"github.com/ent0n29/contactcenter/internal/protocol"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsIdleTimeout  = 120 * time.Second
	wsReadLimit    = 1 << 20
	wsQueueSize    = 64

	welcomeText = "Connected to the automotive contact-center assistant"
)

// handleWS runs one socket: a read loop parses client messages, a worker
// answers them in order and a writer goroutine owns every write.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, wsQueueSize)
	outbound := make(chan any, wsQueueSize)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					s.logger.Debug("websocket write failed", zap.Error(err))
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.ObserveWS("outbound", string(t))
				}
			}
		}
	}()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for msg := range inbound {
			reply := s.answer(ctx, msg)
			select {
			case <-ctx.Done():
				return
			case outbound <- reply:
			}
		}
	}()

	outbound <- protocol.SystemInfo{
		Type:    protocol.TypeSystemInfo,
		Message: welcomeText,
		Architecture: map[string]string{
			"orchestration": "supervisor",
			"fallback":      "local stage pipeline",
		},
	}

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.metrics.ObserveWS("inbound", "invalid")
			select {
			case outbound <- protocol.NewErrorEvent("Message could not be processed: " + err.Error()):
			default:
				// Writes stay single-threaded; drop when the queue is full.
			}
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.ObserveWS("inbound", string(t))
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	close(inbound)
	<-workerDone
	cancel()
	<-writerDone
}

func (s *Server) answer(ctx context.Context, msg any) any {
	switch m := msg.(type) {
	case protocol.ChatMessage:
		return s.orchestrator.ProcessMessage(ctx, m.SessionID, m.Message)
	case protocol.HealthCheck:
		return protocol.HealthStatus{
			Type:   protocol.TypeHealthStatus,
			Status: s.orchestrator.Status(ctx),
		}
	default:
		return protocol.NewErrorEvent("Message could not be processed")
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ChatMessage:
		return m.Type, true
	case protocol.HealthCheck:
		return m.Type, true
	case protocol.SystemInfo:
		return m.Type, true
	case protocol.HealthStatus:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	case orchestrator.Response:
		return protocol.MessageType(m.Type), true
	default:
		return "", false
	}
}
