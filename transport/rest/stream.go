package rest

import (
	"chat-dm/auth"
	"chat-dm/domain/event"
	"chat-dm/errors"
	"chat-dm/sink"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// stream pushes messages delivered to the caller as server-sent events
// until the client goes away.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, r, opStream, errors.Internal("streaming unsupported", fmt.Errorf("%T is not a flusher", w)))
		return
	}

	events := sink.NewChannelSink(s.options.StreamBuffer)
	sessionID := s.service.JoinStream(caller, events)
	defer s.service.LeaveStream(sessionID, caller)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": connected %s\n\n", sessionID)
	flusher.Flush()

	heartbeat := time.NewTicker(s.options.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("Stream closed", "caller", caller, "session", sessionID)
			return
		case <-s.closing:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt := <-events.Events():
			delivered, ok := evt.(event.MessageDelivered)
			if !ok {
				continue
			}
			data, err := json.Marshal(toMessageResponse(delivered.Message, 0))
			if err != nil {
				s.log.Error("Event encoding failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", delivered.Message.ID, data)
			flusher.Flush()
		}
	}
}
