package http

import (
	"bytes"
	"net/http"
	"strconv"

	"energylog/internal/core"
	"energylog/internal/log"
	"energylog/internal/records"
)

// ImportResult answers a bulk import.
type ImportResult struct {
	Imported int                 `json:"imported"`
	Records  []core.EnergyRecord `json:"records"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.records.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.EnergyRecord{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.records.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := RecordFromRequest(r, s.opts.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.records.Create(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/records/"+strconv.FormatInt(stored.ID, 10)).
		JSON(stored).
		Write(w)
}

// handleReplaceRecord keeps the path id whatever the body says.
func (s *Server) handleReplaceRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := RecordFromRequest(r, s.opts.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.records.Replace(r.Context(), id, rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.records.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := s.records.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := records.WriteExport(&buf, list); err != nil {
		writeError(w, r, err)
		return
	}
	name := records.ExportFilename(s.opts.VehicleID, s.opts.Now().In(s.opts.Location))
	log.FromContext(r.Context()).InfoContext(r.Context(), "Records exported",
		log.FieldOperation, log.OpExport, log.FieldCount, len(list))
	NewResponse().
		Bytes(contentTypeJSON, buf.Bytes()).
		Attachment(name).
		Write(w)
}

// handleImport merges a JSON array upload. Nothing is stored unless the whole
// upload decodes and validates.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	incoming, err := records.ParseImport(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.records.Import(r.Context(), incoming)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stored == nil {
		stored = []core.EnergyRecord{}
	}
	writeJSON(w, http.StatusOK, ImportResult{Imported: len(stored), Records: stored})
}
