package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/energydash/energydash/pkg/dashboard"
	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/present"
	"github.com/energydash/energydash/pkg/types"
	"github.com/energydash/energydash/pkg/vendor"
)

func (s *Server) proxyTelemetry(w http.ResponseWriter, r *http.Request, kind types.VendorKind, failure func(error) types.RawSample) {
	ctx := log.WithAttrs(r.Context(), slog.String("source", string(kind)))
	raw, err := s.dash.Telemetry().Fetch(ctx, kind)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to fetch telemetry", slog.Any("error", err))
		writeJSON(w, failure(err), http.StatusBadGateway)
		return
	}
	writeJSON(w, raw, http.StatusOK)
}

func (s *Server) handleSolaxProxy(w http.ResponseWriter, r *http.Request) {
	s.proxyTelemetry(w, r, types.VendorSolaxProxy, vendor.SolaxFailure)
}

func (s *Server) handleSolaxData(w http.ResponseWriter, r *http.Request) {
	s.proxyTelemetry(w, r, types.VendorSolaxData, func(err error) types.RawSample {
		return vendor.SolaxDataEnvelope(vendor.SolaxFailure(err))
	})
}

func (s *Server) handleMyEnergi(w http.ResponseWriter, r *http.Request) {
	s.proxyTelemetry(w, r, types.VendorMyEnergi, vendor.MyEnergiFailure)
}

type displayResponse struct {
	Slots    map[types.Slot]present.SlotState    `json:"slots"`
	Grid     map[types.VendorKind]types.GridFlow `json:"grid"`
	Days     int                                 `json:"days"`
	Canvases []string                            `json:"canvases"`
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	resp := displayResponse{
		Slots:    s.sink.Slots(),
		Grid:     make(map[types.VendorKind]types.GridFlow),
		Days:     s.dash.Days(),
		Canvases: []string{},
	}
	for _, kind := range []types.VendorKind{types.VendorSolaxProxy, types.VendorSolaxData, types.VendorMyEnergi} {
		if reading, ok := s.dash.Reading(kind); ok {
			resp.Grid[kind] = reading.Grid
		}
	}
	for _, c := range s.sink.Charts() {
		resp.Canvases = append(resp.Canvases, c.Canvas)
	}
	writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sink.Charts(), http.StatusOK)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	canvas := r.PathValue("canvas")

	var buf bytes.Buffer
	if err := s.sink.RenderPNG(canvas, &buf); err != nil {
		switch {
		case errors.Is(err, present.ErrNoChart):
			writeJSONError(w, "no chart on canvas", http.StatusNotFound)
		case errors.Is(err, present.ErrNoData):
			writeJSONError(w, "chart has no data", http.StatusNotFound)
		default:
			log.Ctx(ctx).ErrorContext(ctx, "failed to render chart", slog.String("canvas", canvas), slog.Any("error", err))
			writeJSONError(w, "failed to render chart", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := io.Copy(w, &buf); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	remote := r.URL.Query().Get("remote") == "1"

	var buf bytes.Buffer
	var err error
	if remote {
		err = s.dash.DownloadCSV(ctx, &buf)
	} else {
		err = s.dash.ExportCSV(&buf)
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to export csv", slog.Bool("remote", remote), slog.Any("error", err))
		writeJSONError(w, "failed to export data", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="solar_data_%ddays.csv"`, s.dash.Days()))
	if _, err := io.Copy(w, &buf); err != nil {
		panic(http.ErrAbortHandler)
	}
}

type commandRequest struct {
	Days int `json:"days"`
}

type commandResponse struct {
	Command present.Command `json:"command"`
	Days    int             `json:"days"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cmd := present.Command(r.PathValue("command"))

	var req commandRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSONError(w, "invalid request", http.StatusBadRequest)
			return
		}
	}
	if q := r.URL.Query().Get("days"); q != "" && req.Days == 0 {
		days, err := strconv.Atoi(q)
		if err != nil {
			writeJSONError(w, "invalid days", http.StatusBadRequest)
			return
		}
		req.Days = days
	}

	err := s.dispatcher.Dispatch(ctx, present.Event{Command: cmd, Days: req.Days})
	switch {
	case err == nil:
	case errors.Is(err, present.ErrUnknownCommand):
		writeJSONError(w, "unknown command", http.StatusNotFound)
		return
	case errors.Is(err, dashboard.ErrInvalidDays):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	default:
		log.Ctx(ctx).WarnContext(ctx, "command failed", slog.String("command", string(cmd)), slog.Any("error", err))
		writeJSONError(w, "command failed", http.StatusBadGateway)
		return
	}

	log.Ctx(ctx).InfoContext(ctx, "command handled", slog.String("command", string(cmd)), slog.Int("days", req.Days))
	writeJSON(w, commandResponse{Command: cmd, Days: req.Days}, http.StatusOK)
}
