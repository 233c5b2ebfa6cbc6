package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"

	"github.com/moontrade/hgncd/ingest"
	"github.com/moontrade/hgncd/logger"
	"github.com/moontrade/hgncd/store"
)

// Route labels, also used as metric labels.
const (
	routeData    = "/data"
	routeGenes   = "/genes"
	routeGene    = "/genes/{id}"
	routeImage   = "/image"
	routeTally   = "/tally"
	routeMetrics = "/metrics"
	routeHealth  = "/healthz"
	routeOther   = "other"
)

// PlotFilename is the attachment name of GET /image.
const PlotFilename = "locus_grp.png"

// Handler provides HTTP access to the Service.
type Handler struct {
	Service *Service
	// Metrics serves GET /metrics when set.
	Metrics *Metrics
	// Health is pinged by GET /healthz when set.
	Health store.Pinger
}

// NewHandler constructs the route layer for s.
func NewHandler(s *Service, m *Metrics) *Handler {
	if m != nil {
		s.observe = m.Record
	}
	return &Handler{Service: s, Metrics: m}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	route := h.dispatch(rec, r)
	elapsed := time.Since(start)
	if h.Metrics != nil {
		h.Metrics.Observe(route, r.Method, rec.status, elapsed)
	}
	logger.Debug("method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", elapsed, "request")
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) string {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	ctx := r.Context()

	switch {
	case path == routeData:
		switch r.Method {
		case http.MethodGet:
			h.handleDocuments(ctx, w)
		case http.MethodPost:
			h.handleLoad(ctx, w)
		case http.MethodDelete:
			h.handleClear(ctx, w)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
		}
		return routeData

	case path == routeGenes:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
		} else {
			h.handleGenes(ctx, w)
		}
		return routeGenes

	case strings.HasPrefix(path, routeGenes+"/"):
		id := strings.TrimPrefix(path, routeGenes+"/")
		if id == "" || strings.Contains(id, "/") {
			writeText(w, http.StatusNotFound, msgNoMethod)
			return routeOther
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
		} else {
			h.handleGene(ctx, w, id)
		}
		return routeGene

	case path == routeImage:
		switch r.Method {
		case http.MethodGet:
			h.handlePlot(ctx, w)
		case http.MethodPost:
			h.handleMakePlot(ctx, w)
		case http.MethodDelete:
			h.handleDeletePlot(ctx, w)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
		}
		return routeImage

	case path == routeTally:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
		} else {
			h.handleTally(ctx, w)
		}
		return routeTally

	case path == routeMetrics && h.Metrics != nil:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
		} else {
			h.Metrics.Handler().ServeHTTP(w, r)
		}
		return routeMetrics

	case path == routeHealth:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
		} else {
			h.handleHealth(ctx, w)
		}
		return routeHealth
	}

	writeText(w, http.StatusNotFound, msgNoMethod)
	return routeOther
}

func (h *Handler) handleDocuments(ctx context.Context, w http.ResponseWriter) {
	docs, err := h.Service.Documents(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var jw jwriter.Writer
	jw.RawByte('[')
	for i, doc := range docs {
		if i > 0 {
			jw.RawByte(',')
		}
		jw.Raw(doc, nil)
	}
	jw.RawByte(']')
	writeJSONWriter(w, &jw)
}

func (h *Handler) handleLoad(ctx context.Context, w http.ResponseWriter) {
	res, err := h.Service.Load(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Data loaded: %d records, %d skipped.\n", res.Loaded, res.Skipped))
}

func (h *Handler) handleClear(ctx context.Context, w http.ResponseWriter) {
	n, err := h.Service.Clear(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Data deleted, there are %d keys in the db\n", n))
}

func (h *Handler) handleGenes(ctx context.Context, w http.ResponseWriter) {
	ids, err := h.Service.Genes(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var jw jwriter.Writer
	jw.RawByte('[')
	for i, id := range ids {
		if i > 0 {
			jw.RawByte(',')
		}
		jw.String(id)
	}
	jw.RawByte(']')
	writeJSONWriter(w, &jw)
}

func (h *Handler) handleGene(ctx context.Context, w http.ResponseWriter, id string) {
	doc, err := h.Service.Gene(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) handleMakePlot(ctx context.Context, w http.ResponseWriter) {
	if _, err := h.Service.MakePlot(ctx); err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, http.StatusOK, msgPlotSaved)
}

func (h *Handler) handleTally(ctx context.Context, w http.ResponseWriter) {
	tally, err := h.Service.Tally(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := easyjson.Marshal(tally)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handlePlot(ctx context.Context, w http.ResponseWriter) {
	img, err := h.Service.Plot(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+PlotFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *Handler) handleDeletePlot(ctx context.Context, w http.ResponseWriter) {
	if _, err := h.Service.DeletePlot(ctx); err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, http.StatusOK, msgPlotDeleted)
}

func (h *Handler) handleHealth(ctx context.Context, w http.ResponseWriter) {
	if h.Health != nil {
		if err := h.Health.Ping(ctx); err != nil {
			logger.WarnErr(err, "health check failed")
			writeText(w, http.StatusServiceUnavailable, "key-value service unavailable\n")
			return
		}
	}
	writeText(w, http.StatusOK, "OK\n")
}

// writeServiceError maps Service outcomes to a status code and body.
func writeServiceError(w http.ResponseWriter, err error) {
	var upstream *ingest.UpstreamError
	switch {
	case errors.Is(err, store.ErrEmpty):
		writeText(w, http.StatusNotFound, msgNoData)
	case errors.Is(err, ErrInvalidID):
		writeText(w, http.StatusNotFound, msgInvalidID)
	case errors.Is(err, ErrNoPlot):
		writeText(w, http.StatusNotFound, msgNoPlot)
	case errors.Is(err, context.Canceled):
		// client went away, including mid-fetch; nothing useful can be written
		w.WriteHeader(499)
	case errors.As(err, &upstream):
		logger.Error(err, "ingest failed")
		writeText(w, http.StatusBadGateway, "Upstream fetch failed: "+upstream.Error()+"\n")
	default:
		logger.Error(err, "request failed")
		writeText(w, http.StatusInternalServerError, msgInternalError)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow ...string) {
	w.Header().Set("Allow", strings.Join(allow, ", "))
	writeText(w, http.StatusMethodNotAllowed, msgNoMethod)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSONWriter(w http.ResponseWriter, jw *jwriter.Writer) {
	data, err := jw.BuildBytes()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}
