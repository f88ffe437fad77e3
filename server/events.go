package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meetverse/eventcal/recurrence"
	"github.com/meetverse/eventcal/storage"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var event storage.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := checkRule(event.RuleText); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateEvent(r.Context(), &event); err != nil {
		s.writeOpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, &event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var event storage.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	event.ID = r.PathValue("id")
	if err := checkRule(event.RuleText); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateEvent(r.Context(), &event); err != nil {
		s.writeOpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		s.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ruleResponse struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
}

func (s *Server) handleDescribeRule(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	if event.RuleText == "" {
		s.writeJSON(w, http.StatusOK, ruleResponse{})
		return
	}

	rule, err := recurrence.Parse(event.RuleText)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ruleResponse{
		Rule:        recurrence.Serialize(rule),
		Description: recurrence.Describe(rule),
	})
}

// checkRule enforces the write-path contract: rule text must parse and
// validate before an event is persisted. The read path degrades on its
// own, but corrupt rules must never enter the store through the API.
func checkRule(ruleText string) error {
	if ruleText == "" {
		return nil
	}
	rule, err := recurrence.Parse(ruleText)
	if err != nil {
		return err
	}
	if issues := recurrence.Validate(rule); len(issues) > 0 {
		return fmt.Errorf("invalid rule: %v", issues)
	}
	return nil
}
