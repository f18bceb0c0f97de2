package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/gorilla/mux"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/capture"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/logger"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// runError maps sequencer errors onto status codes
func runError(w http.ResponseWriter, err error) {
	if errors.Is(err, booth.ErrRunActive) {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeError(w, http.StatusBadRequest, err)
}

type stateResponse struct {
	State    booth.State    `json:"state"`
	RunID    string         `json:"run_id,omitempty"`
	Photos   int            `json:"photos"`
	HasStrip bool           `json:"has_strip"`
	Settings booth.Settings `json:"settings"`
}

func (s *Server) snapshot() stateResponse {
	b := s.deps.Booth
	return stateResponse{
		State:    b.State(),
		RunID:    b.RunID(),
		Photos:   len(b.Photos()),
		HasStrip: b.Strip() != nil,
		Settings: b.Settings(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version,
	})
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	src := s.deps.Source
	if src == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no camera source"))
		return
	}
	h := src.Health()
	width, height := src.Size()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":   src.Name(),
		"health":   h,
		"ready":    h == capture.Ready,
		"terminal": h.Terminal(),
		"message":  h.Message(),
		"width":    width,
		"height":   height,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Booth.Start(booth.Multi); err != nil {
		runError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.snapshot())
}

func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Booth.Start(booth.Single); err != nil {
		runError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.snapshot())
}

func (s *Server) handleRetake(w http.ResponseWriter, r *http.Request) {
	s.deps.Booth.Retake()
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	key, err := booth.ParseKey(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := booth.Dispatch(s.deps.Booth, key)
	if err != nil {
		runError(w, err)
		return
	}

	resp := map[string]interface{}{
		"key":    res.Key,
		"action": res.Action,
		"state":  s.deps.Booth.State(),
	}
	if res.Action == booth.ActionFilter {
		resp["filter"] = res.Filter
	}
	if res.Action == booth.ActionDownload {
		resp["download"] = "/api/strip"
		resp["filename"] = strip.Filename(res.Strip.Date)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Booth.Settings())
}

// settingsRequest is a partial update; names go through the same parsers
// as the CLI so aliases are accepted
type settingsRequest struct {
	ShotCount   *int    `json:"shot_count"`
	Layout      *string `json:"layout"`
	Filter      *string `json:"filter"`
	FrameColor  *string `json:"frame_color"`
	Caption     *string `json:"caption"`
	IncludeDate *bool   `json:"include_date"`
}

func (req settingsRequest) apply(cur booth.Settings) (booth.Settings, error) {
	if req.ShotCount != nil {
		cur.ShotCount = *req.ShotCount
	}
	if req.Layout != nil {
		l, err := strip.ParseLayout(*req.Layout)
		if err != nil {
			return cur, err
		}
		cur.Layout = l
	}
	if req.Filter != nil {
		k, err := filter.Parse(*req.Filter)
		if err != nil {
			return cur, err
		}
		cur.Filter = k
	}
	if req.FrameColor != nil {
		c, err := strip.ParseFrameColor(*req.FrameColor)
		if err != nil {
			return cur, err
		}
		cur.FrameColor = c
	}
	if req.Caption != nil {
		cur.Caption = *req.Caption
	}
	if req.IncludeDate != nil {
		cur.IncludeDate = *req.IncludeDate
	}
	return cur, nil
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	next, err := req.apply(s.deps.Booth.Settings())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	settings, err := s.deps.Booth.UpdateSettings(next)
	if err != nil {
		runError(w, err)
		return
	}

	if s.deps.Config != nil {
		if err := s.deps.Config.SetBooth(settings); err != nil {
			logger.WithComponent("api").Warn().Err(err).Msg("Failed to persist settings")
		}
	}
	writeJSON(w, http.StatusOK, settings)
}

type filterInfo struct {
	Kind  filter.Kind `json:"kind"`
	Label string      `json:"label"`
	Key   string      `json:"key,omitempty"`
}

func filterList() []filterInfo {
	kinds := filter.Kinds()
	out := make([]filterInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, filterInfo{Kind: k, Label: k.Label(), Key: string(booth.FilterKey(k))})
	}
	return out
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filterList())
}

func (s *Server) handleStrip(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Booth.Strip()
	if st == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no strip composed"))
		return
	}
	data, err := st.Encode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strip.Filename(st.Date)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// handlePhoto serves one captured photo by zero-based index
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	photos := s.deps.Booth.Photos()
	if idx < 0 || idx >= len(photos) {
		writeError(w, http.StatusNotFound, fmt.Errorf("photo %d not found (have %d)", idx, len(photos)))
		return
	}

	buf := new(bytes.Buffer)
	if err := imgio.PNGEncoder()(buf, photos[idx].Image); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
