package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/park285/atomic-chess-arena/internal/atomic"
	"github.com/park285/atomic-chess-arena/internal/render"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req atomicdto.StartRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	resp, err := s.svc.Start(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Status(r.Context(), r.PathValue("room"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.StatusByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req atomicdto.MoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	resp, err := s.svc.Play(r.Context(), r.PathValue("room"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	var req atomicdto.ResignRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	resp, err := s.svc.Resign(r.Context(), r.PathValue("room"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Recent(r.Context(), r.PathValue("room"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBoardPNG serves the current position as an image. from and to
// query parameters tint the squares of the move to call out.
func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	highlight, ok := parseHighlight(r)
	if !ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeJSON(w, http.StatusBadRequest, atomicdto.ErrorResponse{
			Error: &atomicdto.DomainError{Code: "invalid_request", Message: "invalid highlight square"},
		})
		return
	}
	data, err := s.svc.BoardPNG(r.Context(), r.PathValue("room"), highlight)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseHighlight(r *http.Request) (*render.MoveHighlight, bool) {
	q := r.URL.Query()
	fromRaw := strings.TrimSpace(q.Get("from"))
	toRaw := strings.TrimSpace(q.Get("to"))
	if fromRaw == "" && toRaw == "" {
		return nil, true
	}
	if fromRaw == "" || toRaw == "" {
		return nil, false
	}
	from, err := atomic.ParseSquare(fromRaw)
	if err != nil {
		return nil, false
	}
	to, err := atomic.ParseSquare(toRaw)
	if err != nil {
		return nil, false
	}
	return &render.MoveHighlight{From: from, To: to}, true
}

// handleLive upgrades to a websocket and streams every update for the
// room. The current state goes out first so late joiners catch up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")
	st, err := s.svc.Status(r.Context(), room)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, r, err)
		return
	}
	snapshot, err := json.Marshal(&atomicdto.StateUpdate{
		Event: atomicdto.EventState,
		State: st.State,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.hub.ServeLive(w, r, room, snapshot)
}
