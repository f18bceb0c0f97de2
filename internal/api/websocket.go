package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/logger"
)

const (
	writeWait = 5 * time.Second
	// largest frame a browser may push; a 1080p JPEG is well under this
	maxFrameBytes = 8 << 20
)

// handleEvents streams sequencer events as JSON, starting with a snapshot
// of the current state
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	events, unsubscribe := s.deps.Booth.Subscribe()
	defer unsubscribe()

	snap := s.snapshot()
	initial := booth.Event{
		Type:   booth.EventState,
		RunID:  snap.RunID,
		State:  snap.State,
		Photos: snap.Photos,
		Time:   time.Now(),
	}
	if err := s.sendJSON(conn, initial); err != nil {
		return
	}

	// drain reads so close frames are seen
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug().Str("remote", r.RemoteAddr).Msg("Event client connected")
	for {
		select {
		case <-closed:
			log.Debug().Str("remote", r.RemoteAddr).Msg("Event client disconnected")
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.sendJSON(conn, e); err != nil {
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}

func (s *Server) sendJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

type feedError struct {
	Error string `json:"error"`
}

// handleCameraFeed receives camera frames from the browser. Binary
// messages are JPEG or PNG frames; text messages name a getUserMedia
// failure, either bare ("NotAllowedError") or as {"error": "..."}.
func (s *Server) handleCameraFeed(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	if s.deps.Push == nil {
		http.Error(w, "camera source does not accept pushed frames", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	// frames from a closed feed would otherwise freeze the camera
	s.deps.Push.Connect()
	defer s.deps.Push.Disconnect()

	log.Info().Str("remote", r.RemoteAddr).Msg("Camera feed connected")

	var rejected int
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Camera feed closed unexpectedly")
			}
			log.Info().Uint64("frames", s.deps.Push.Frames()).Msg("Camera feed disconnected")
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			if err := s.deps.Push.PublishEncoded(data); err != nil {
				rejected++
				if rejected == 1 || rejected%100 == 0 {
					log.Warn().Err(err).Int("rejected", rejected).Msg("Rejected pushed frame")
				}
			}
		case websocket.TextMessage:
			name := strings.TrimSpace(string(data))
			if strings.HasPrefix(name, "{") {
				var fe feedError
				if err := json.Unmarshal(data, &fe); err == nil {
					name = fe.Error
				}
			}
			h := s.deps.Push.ReportError(name)
			if err := s.sendJSON(conn, map[string]interface{}{
				"health":  h,
				"message": h.Message(),
			}); err != nil {
				return
			}
		}
	}
}
