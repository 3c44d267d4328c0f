package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Solideomyers/guests-app/internal/domain"
	"github.com/Solideomyers/guests-app/internal/guests"
	"github.com/Solideomyers/guests-app/internal/history"
)

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, r, s.logger, badRequest("body", "malformed JSON body"))
		return false
	}
	return true
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in guests.CreateGuestInput
	if !s.decode(w, r, &in) {
		return
	}
	g, err := s.guests.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := guests.ListGuestsInput{
		Search:    q.Get("search"),
		FirstName: q.Get("firstName"),
		LastName:  q.Get("lastName"),
		Phone:     q.Get("phone"),
		Address:   q.Get("address"),
		Church:    q.Get("church"),
		City:      q.Get("city"),
		State:     q.Get("state"),
		Status:    q.Get("status"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	var err error
	if in.IsPastor, err = boolQuery(r, "isPastor"); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if in.Page, err = intQuery(r, "page"); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if in.Limit, err = intQuery(r, "limit"); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	page, err := s.guests.FindAll(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) findOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	detail, err := s.guests.FindOne(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	var patch domain.GuestPatch
	if !s.decode(w, r, &patch) {
		return
	}
	g, err := s.guests.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	res, err := s.guests.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) bulkStatus(w http.ResponseWriter, r *http.Request) {
	var in guests.BulkStatusInput
	if !s.decode(w, r, &in) {
		return
	}
	res, err := s.guests.BulkUpdateStatus(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) bulkPastor(w http.ResponseWriter, r *http.Request) {
	var in guests.BulkPastorInput
	if !s.decode(w, r, &in) {
		return
	}
	res, err := s.guests.BulkUpdatePastor(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var in guests.BulkDeleteInput
	if !s.decode(w, r, &in) {
		return
	}
	res, err := s.guests.BulkDelete(r.Context(), in)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.guests.GetStats(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	p, err := pageQuery(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	page, err := s.guests.GetHistory(r.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) guestHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	p, err := pageQuery(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	page, err := s.guests.GetGuestHistory(r.Context(), id, p.Page, p.Limit)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// healthResponse reports store and cache reachability. A cache outage
// degrades the status but never fails the check.
type healthResponse struct {
	Status  string               `json:"status"`
	Store   string               `json:"store"`
	Cache   string               `json:"cache"`
	History *history.OutboxStats `json:"history,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: "up", Cache: "up"}
	code := http.StatusOK

	if !s.cache.IsConnected(r.Context()) {
		resp.Status, resp.Cache = "degraded", "down"
	}
	if s.outbox != nil {
		st := s.outbox.Stats()
		resp.History = &st
	}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("store ping failed")
			resp.Status, resp.Store = "unavailable", "down"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats(r.Context()))
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear(r.Context())
	s.logger.Info().Msg("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}
