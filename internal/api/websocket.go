package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/docnav/internal/tracker"
	"github.com/dgallion1/docnav/internal/views"
)

const writeWait = 10 * time.Second

// clientFrame is a message sent by the page: "sample", "navigate" or "top".
type clientFrame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	views.Sample
}

type stateFrame struct {
	Type string `json:"type"`
	tracker.State
}

type scrollFrame struct {
	Type string `json:"type"`
	views.ScrollCommand
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// handleViewSocket streams navigation state for one view. The view is closed
// when the socket goes away.
func (s *Server) handleViewSocket(w http.ResponseWriter, r *http.Request) {
	v := s.view(w, r)
	if v == nil {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "view_id", v.ID, "error", err)
		return
	}
	defer s.views.Close(v.ID)
	defer conn.Close()
	// The server's read timeout applies to the upgrade request, not the socket.
	conn.SetReadDeadline(time.Time{})
	conn.SetReadLimit(maxSampleBytes)

	var wmu sync.Mutex
	send := func(frame any) {
		wmu.Lock()
		defer wmu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Debug("websocket write failed", "view_id", v.ID, "error", err)
		}
	}
	sendScroll := func() {
		if cmd, ok := v.Viewport.TakeScroll(); ok {
			send(scrollFrame{Type: "scroll", ScrollCommand: cmd})
		}
	}

	stop := v.OnState(func(st tracker.State) {
		send(stateFrame{Type: "state", State: st})
	})
	defer stop()

	ctx, cancel := context.WithCancel(r.Context())
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		v.Tracker.Watch(ctx, v.Viewport)
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	send(stateFrame{Type: "state", State: v.Tracker.State()})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", "view_id", v.ID, "error", err)
			}
			return
		}
		v.Touch()

		var frame clientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			send(errorFrame{Type: "error", Error: "invalid frame"})
			continue
		}

		switch frame.Type {
		case "sample":
			v.Viewport.Update(frame.Sample)
		case "navigate":
			v.Tracker.NavigateTo(frame.ID)
			sendScroll()
		case "top":
			v.Tracker.ScrollToTop()
			sendScroll()
		default:
			send(errorFrame{Type: "error", Error: "unknown frame type: " + frame.Type})
		}
	}
}
