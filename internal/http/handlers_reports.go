package http

import (
	"net/http"
	"strconv"
	"strings"

	"energylog/internal/core"
	"energylog/internal/export"
	"energylog/internal/log"
	"energylog/internal/metrics"
	"energylog/internal/share"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// ShareResult carries a share payload and the link that embeds it.
type ShareResult struct {
	Payload string `json:"payload"`
	URL     string `json:"url"`
}

// yearlyReport loads the rounded report for the {year} path value. A year
// without records answers 404 and returns nil.
func (s *Server) yearlyReport(w http.ResponseWriter, r *http.Request) (*core.YearlyReport, int) {
	year, err := parseYear(r.PathValue("year"))
	if err != nil {
		writeError(w, r, err)
		return nil, 0
	}
	opts, err := s.optionsFor(r)
	if err != nil {
		writeError(w, r, err)
		return nil, 0
	}
	report, err := s.stats.YearlyReport(r.Context(), year, opts)
	if err != nil {
		writeError(w, r, err)
		return nil, 0
	}
	if report == nil {
		NotFoundError("no records for year " + strconv.Itoa(year)).Write(w)
		return nil, 0
	}
	rounded := report.Rounded()
	return &rounded, year
}

func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	report, _ := s.yearlyReport(w, r)
	if report == nil {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) shareLink(report core.YearlyReport) (ShareResult, error) {
	payload, err := s.codec.Encode(report)
	if err != nil {
		return ShareResult{}, err
	}
	return ShareResult{Payload: payload, URL: share.Link(s.opts.ShareBaseURL, payload)}, nil
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	report, _ := s.yearlyReport(w, r)
	if report == nil {
		return
	}
	res, err := s.shareLink(*report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleShareQR renders the share link as a PNG; size is in pixels.
func (s *Server) handleShareQR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if v := strings.TrimSpace(r.URL.Query().Get("size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minQRSize || n > maxQRSize {
			BadRequestError("size must be between " + strconv.Itoa(minQRSize) + " and " + strconv.Itoa(maxQRSize)).Write(w)
			return
		}
		size = n
	}

	report, _ := s.yearlyReport(w, r)
	if report == nil {
		return
	}
	res, err := s.shareLink(*report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := share.QRCode(res.URL, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Bytes("image/png", png).Write(w)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	report, year := s.yearlyReport(w, r)
	if report == nil {
		return
	}
	data, err := export.BuildYearlyXLSX(*report, s.opts.Location)
	metrics.IncExport("xlsx", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logExport(r, "xlsx", year)
	NewResponse().
		Bytes(export.ContentTypeXLSX, data).
		Attachment(export.Filename(s.opts.VehicleID, year, "xlsx")).
		Write(w)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	report, year := s.yearlyReport(w, r)
	if report == nil {
		return
	}
	data, err := export.BuildYearlyPDF(*report, s.opts.Location)
	metrics.IncExport("pdf", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logExport(r, "pdf", year)
	NewResponse().
		Bytes(export.ContentTypePDF, data).
		Attachment(export.Filename(s.opts.VehicleID, year, "pdf")).
		Write(w)
}

func (s *Server) logExport(r *http.Request, format string, year int) {
	log.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		log.FieldOperation, log.OpExport, "format", format, log.FieldYear, year)
}

// handleShared decodes a share payload back into a report. The query value
// arrives unescaped, which Decode accepts.
func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	payload := r.URL.Query().Get(share.QueryParam)
	if strings.TrimSpace(payload) == "" {
		BadRequestError("missing share payload").Write(w)
		return
	}
	report, err := s.codec.Decode(payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
