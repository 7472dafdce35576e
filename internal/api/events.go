package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"star-notary/internal/domain"
	"star-notary/internal/observability"
	"star-notary/internal/stream"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 90 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Events upgrades to a WebSocket carrying committed events.
// GET /v1/events
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		h.writeError(w, http.StatusServiceUnavailable, CodeStreamUnavailable, "event stream is disabled", "")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Printf("websocket upgrade: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := &session{conn: conn, ids: &h.subIDs, filters: make(map[int64]stream.Filter)}
	feed := h.broker.Subscribe(ctx)
	observability.UpdateSubscribers(int(h.streams.Add(1)))
	defer func() {
		cancel()
		conn.Close()
		observability.UpdateSubscribers(int(h.streams.Add(-1)))
	}()

	go func() {
		defer cancel()
		sess.readRequests()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-feed:
			if !ok {
				sess.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := sess.dispatch(e); err != nil {
				return
			}
		}
	}
}

// session is one WebSocket connection and its subscriptions.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	ids     *atomic.Int64
	mu      sync.Mutex
	filters map[int64]stream.Filter
}

func (s *session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(messageType, data)
}

func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

// readRequests serves subscribe and unsubscribe requests until the
// connection fails.
func (s *session) readRequests() {
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPingHandler(func(data string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeTimeout))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))

		if err := s.writeJSON(s.handle(message)); err != nil {
			return
		}
	}
}

func (s *session) handle(message []byte) stream.Response {
	var req stream.Request
	if err := json.Unmarshal(message, &req); err != nil {
		return errorResponse(0, stream.CodeInvalidRequest, "invalid request: "+err.Error())
	}

	switch req.Method {
	case stream.MethodSubscribe:
		var filter stream.Filter
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &filter); err != nil {
				return errorResponse(req.ID, stream.CodeInvalidParams, "invalid filter: "+err.Error())
			}
		}
		id := s.ids.Add(1)
		s.mu.Lock()
		s.filters[id] = filter
		s.mu.Unlock()
		return stream.Response{JSONRPC: "2.0", ID: req.ID, Result: id}

	case stream.MethodUnsubscribe:
		var params stream.UnsubscribeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, stream.CodeInvalidParams, "invalid params: "+err.Error())
		}
		s.mu.Lock()
		_, ok := s.filters[params.Subscription]
		delete(s.filters, params.Subscription)
		s.mu.Unlock()
		if !ok {
			return errorResponse(req.ID, stream.CodeInvalidParams, "unknown subscription")
		}
		return stream.Response{JSONRPC: "2.0", ID: req.ID, Result: params.Subscription}

	default:
		return errorResponse(req.ID, stream.CodeMethodNotFound, "unknown method "+req.Method)
	}
}

// dispatch sends e to every subscription whose filter matches.
func (s *session) dispatch(e domain.Event) error {
	s.mu.Lock()
	var targets []int64
	for id, f := range s.filters {
		if f.Matches(e) {
			targets = append(targets, id)
		}
	}
	s.mu.Unlock()

	for _, id := range targets {
		err := s.writeJSON(stream.Notification{
			JSONRPC: "2.0",
			Method:  stream.MethodNotification,
			Params:  stream.NotificationParams{Subscription: id, Result: e},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func errorResponse(id uint64, code int, message string) stream.Response {
	return stream.Response{JSONRPC: "2.0", ID: id, Error: &stream.Error{Code: code, Message: message}}
}
