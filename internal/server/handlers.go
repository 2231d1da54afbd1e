package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/monkichi27/number-guessing-game/internal/broadcast"
	"github.com/monkichi27/number-guessing-game/internal/db"
	"github.com/monkichi27/number-guessing-game/internal/rooms"
	"github.com/monkichi27/number-guessing-game/internal/session"
	"github.com/monkichi27/number-guessing-game/internal/wshub"
)

const qrSize = 320

type Server struct {
	Rooms     *rooms.Store
	Sessions  *session.Manager
	Hub       *wshub.Hub
	Lobby     *broadcast.Broadcaster
	DB        *db.DB // nil if no database configured
	PublicURL string
}

func New(cfg rooms.Config, publicURL string) *Server {
	hub := wshub.NewHub()
	store := rooms.NewStore(cfg, hub)
	s := &Server{
		Rooms:     store,
		Sessions:  session.NewManager(store, hub),
		Hub:       hub,
		Lobby:     broadcast.NewBroadcaster(),
		PublicURL: strings.TrimRight(publicURL, "/"),
	}
	store.OnChange(s.publishRooms)
	s.publishRooms()
	return s
}

// publishRooms pushes the current room listing to /rooms/events subscribers.
func (s *Server) publishRooms() {
	data, err := json.Marshal(s.Rooms.Summaries())
	if err != nil {
		log.Error().Err(err).Msg("marshal room listing")
		return
	}
	s.Lobby.Publish("rooms", string(data))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write json response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Rooms.Summaries())
}

func (s *Server) handleRoomEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	msgChan := s.Lobby.Subscribe()
	defer s.Lobby.Unsubscribe(msgChan)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range strings.Split(msg.Data, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	room := s.Rooms.Get(chi.URLParam(r, "code"))
	if room == nil {
		writeError(w, http.StatusNotFound, rooms.ErrRoomNotFound.Message)
		return
	}
	png, err := qrcode.Encode(s.joinURL(r, room.Code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", room.Code).Msg("encode qr code")
		writeError(w, http.StatusInternalServerError, "qr_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// joinURL is the link a second player scans to open the room.
func (s *Server) joinURL(r *http.Request, code string) string {
	base := s.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + code
}
