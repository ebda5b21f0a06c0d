package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"rentalintel/internal/dispatch"
	"rentalintel/internal/pipeline"
	"rentalintel/internal/report"
	"rentalintel/internal/store"
	"rentalintel/internal/types"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Server exposes the review surface over HTTP:
//
//	GET  /api/actions/pending       queued actions
//	POST /api/actions/{id}/decision apply a reviewer decision
//	GET  /api/reports               stored run ids
//	GET  /api/reports/{id}          one report (append ?format=text for the summary)
//	GET  /api/watch                 websocket run-event stream
type Server struct {
	Queue      *Queue
	Dispatcher *dispatch.Dispatcher
	Store      *store.Store
	Hub        *Hub
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/actions/pending", s.handlePending)
	mux.HandleFunc("/api/actions/", s.handleDecision)
	mux.HandleFunc("/api/reports", s.handleReportList)
	mux.HandleFunc("/api/reports/", s.handleReport)
	mux.HandleFunc("/api/watch", s.handleWatch)
	return mux
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"actions": s.Queue.Pending()})
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note,omitempty"`
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/actions/")
	id := strings.TrimSuffix(rest, "/decision")
	if id == "" || id == rest {
		http.Error(w, "action id required", http.StatusBadRequest)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	p, ok := s.Queue.Take(id)
	if !ok {
		http.Error(w, "action not found", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := s.Dispatcher.Decide(ctx, &p.Action, req.Approve, req.Note); err != nil {
		log.Printf("decision on %s: %v", id, err)
		if p.Action.Status == types.StatusPendingReview {
			// The decision never applied (e.g. no executor registered);
			// put the action back so it stays visible to reviewers.
			s.Queue.Requeue(p)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		// executed-and-failed => rejected; report the outcome rather than
		// requeueing a spent action
	}
	s.publishDecision(p)
	writeJSON(w, map[string]any{"action": p.Action})
}

func (s *Server) publishDecision(p PendingAction) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(pipeline.Event{
		RunID:   p.RunID,
		Stage:   "decision",
		Message: fmt.Sprintf("%s %s: %s", p.Action.Kind, p.Action.ID, p.Action.Status),
		At:      time.Now().UTC(),
	})
}

func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ids, err := s.Store.ListRunIDs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"run_ids": ids})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if id == "" {
		http.Error(w, "run id required", http.StatusBadRequest)
		return
	}
	rep, err := s.Store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(report.Render(rep)))
		return
	}
	writeJSON(w, rep)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// drain client frames so pongs are processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events, unsubscribe := s.Hub.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
