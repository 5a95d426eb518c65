package http

import (
	"net/http"

	"energylog/internal/core"
	"energylog/internal/stats"
)

// optionsFor applies the request's statistics overrides to the defaults.
func (s *Server) optionsFor(r *http.Request) (stats.Options, error) {
	params, err := ParseStatsParams(r.URL.Query())
	if err != nil {
		return stats.Options{}, err
	}
	return s.stats.Options(params.StartMileage, params.OptimizeCost), nil
}

// handleTimeline returns the timeline newest first unless order=asc.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := ParseFilter(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	descending, err := ParseOrder(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := s.stats.Timeline(r.Context(), filter, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if descending {
		entries = stats.Reverse(entries)
	}
	if entries == nil {
		entries = []stats.TimelineEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRollups(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rollups, err := s.stats.Rollups(r.Context(), filter, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rollups == nil {
		rollups = []core.MonthlyRollup{}
	}
	writeJSON(w, http.StatusOK, rollups)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	years, err := s.stats.Years(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cs, err := s.stats.CostStatistics(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs.Rounded())
}

func (s *Server) handleQuarterly(w http.ResponseWriter, r *http.Request) {
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quarters, err := s.stats.Quarterly(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range quarters {
		quarters[i].Mileage = core.Round2(quarters[i].Mileage)
		quarters[i].TotalCost = core.Round2(quarters[i].TotalCost)
		quarters[i].AvgCostPer100Km = core.Round2(quarters[i].AvgCostPer100Km)
	}
	if quarters == nil {
		quarters = []stats.QuarterCost{}
	}
	writeJSON(w, http.StatusOK, quarters)
}

func (s *Server) handleCostCurve(w http.ResponseWriter, r *http.Request) {
	points, err := s.stats.CostCurve(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range points {
		points[i].Value = core.Round2(points[i].Value)
	}
	if points == nil {
		points = []stats.CurvePoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleMonthlyCounts(w http.ResponseWriter, r *http.Request) {
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	counts, err := s.stats.MonthlyCounts(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = []stats.MonthlyCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}
