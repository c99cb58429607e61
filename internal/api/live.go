package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/boardroom/internal/models"
)

// Live frame types.
const (
	FrameSend  = "send"
	FrameRoute = "route"
	FrameReply = "reply"
	FrameDone  = "done"
	FrameError = "error"
)

// Frame is one message on the live turn socket. The client sends a single
// send frame; the server answers with a route frame, one reply frame per
// persona as it lands, then done or error.
type Frame struct {
	Type     string             `json:"type"`
	ID       string             `json:"id,omitempty"`
	Send     *SendRequest       `json:"send,omitempty"`
	Personas []models.Persona   `json:"personas,omitempty"`
	Reply    *models.Message    `json:"reply,omitempty"`
	Result   *models.TurnResult `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
	Status   int                `json:"status,omitempty"`
}

const (
	sendFrameTimeout = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveConn serializes writes to a socket.
type liveConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	id     string
	closed sync.Once
	gone   atomic.Bool // peer hung up; frames are dropped
}

func (c *liveConn) write(f Frame) error {
	if c.gone.Load() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f.ID = c.id
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(f)
}

func (c *liveConn) close() {
	c.closed.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "conversation_id", conversationID, "error", err)
		return
	}

	var first Frame
	_ = conn.SetReadDeadline(time.Now().Add(sendFrameTimeout))
	readErr := conn.ReadJSON(&first)

	id := first.ID
	if id == "" {
		id = uuid.NewString()
	}
	lc := &liveConn{conn: conn, id: id}
	defer lc.close()

	if readErr != nil {
		s.logger.Debug("live read failed", "conversation_id", conversationID, "error", readErr)
		return
	}
	if first.Type != FrameSend || first.Send == nil {
		_ = lc.write(Frame{
			Type:   FrameError,
			Error:  fmt.Sprintf("expected %q frame, got %q", FrameSend, first.Type),
			Status: http.StatusBadRequest,
		})
		return
	}

	// Persona calls already dispatched run to completion and persist even
	// if the client hangs up; the disconnect only stops frame writes.
	ctx := context.WithoutCancel(r.Context())
	_ = conn.SetReadDeadline(time.Time{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				lc.gone.Store(true)
				return
			}
		}
	}()

	in := first.Send.input(conversationID)
	in.OnRoute = func(personas []models.Persona) {
		_ = lc.write(Frame{Type: FrameRoute, Personas: personas})
	}
	in.OnReply = func(reply models.Message) {
		_ = lc.write(Frame{Type: FrameReply, Reply: &reply})
	}

	s.logger.Info("live turn", "request_id", id, "conversation_id", conversationID)
	result, err := s.board.SendMessage(ctx, in)
	if err != nil {
		_ = lc.write(Frame{Type: FrameError, Error: err.Error(), Status: StatusFor(err)})
	} else {
		_ = lc.write(Frame{Type: FrameDone, Result: result})
	}

	lc.close()
	<-readerDone
}

// SendFrame builds the opening frame of a live turn.
func SendFrame(req SendRequest) Frame {
	return Frame{Type: FrameSend, ID: uuid.NewString(), Send: &req}
}
