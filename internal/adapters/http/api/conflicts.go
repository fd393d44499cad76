package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
)

// maxBodyBytes bounds request bodies; a full batch of gigs fits comfortably.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Pinger

	Check(ctx context.Context, subject conflict.Subject) (conflict.Result, error)
	CheckGig(ctx context.Context, gigID string) (conflict.Result, error)
	CheckBatch(ctx context.Context, gigs []model.Gig) ([]conflict.Conflict, error)
	CheckRange(ctx context.Context, from, to time.Time) ([]conflict.Conflict, error)
}

// ConflictsHandler serves the conflict check routes.
type ConflictsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewConflictsHandler creates a new conflicts handler.
func NewConflictsHandler(deps Dependencies, l logger.Logger) *ConflictsHandler {
	return &ConflictsHandler{deps: deps, logger: l}
}

// checkRequest mirrors the OpenAPI schema for POST /conflicts/check.
type checkRequest struct {
	GigID    string `json:"gig_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
	Status   string `json:"status"`
}

func (c checkRequest) subject() (conflict.Subject, error) {
	if err := validGigID("gig_id", c.GigID); err != nil {
		return conflict.Subject{}, err
	}
	start, end, err := parseRange("start", c.Start, "end", c.End)
	if err != nil {
		return conflict.Subject{}, err
	}
	return conflict.Subject{
		GigID:    c.GigID,
		Start:    start,
		End:      end,
		Timezone: c.Timezone,
		Status:   model.GigStatus(c.Status),
	}, nil
}

// gigRequest is one entry of POST /conflicts/batch.
type gigRequest struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
	Status   string `json:"status"`
}

type batchRequest struct {
	Gigs []gigRequest `json:"gigs"`
}

func (b batchRequest) gigs() ([]model.Gig, error) {
	out := make([]model.Gig, 0, len(b.Gigs))
	for i, g := range b.Gigs {
		field := fmt.Sprintf("gigs[%d]", i)
		if err := validGigID(field+".id", g.ID); err != nil {
			return nil, err
		}
		start, end, err := parseRange(field+".start", g.Start, field+".end", g.End)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Gig{
			ID:       g.ID,
			Title:    g.Title,
			Start:    start,
			End:      end,
			Timezone: g.Timezone,
			Status:   model.GigStatus(g.Status),
		})
	}
	return out, nil
}

// HandleCheck handles POST /conflicts/check requests.
func (h *ConflictsHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	subject, err := req.subject()
	if err != nil {
		writeFailure(w, err)
		return
	}
	res, err := h.deps.Check(r.Context(), subject)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBatch handles POST /conflicts/batch requests.
func (h *ConflictsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	gigs, err := req.gigs()
	if err != nil {
		writeFailure(w, err)
		return
	}
	out, err := h.deps.CheckBatch(r.Context(), gigs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRange handles GET /conflicts?from=&to= requests.
func (h *ConflictsHandler) HandleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := parseRange("from", q.Get("from"), "to", q.Get("to"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	out, err := h.deps.CheckRange(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGig handles GET /gigs/{id}/conflicts requests.
func (h *ConflictsHandler) HandleGig(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := validGigID("id", id); err != nil {
		writeFailure(w, err)
		return
	}
	res, err := h.deps.CheckGig(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fail logs server-side failures before writing the error body.
func (h *ConflictsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "conflict request failed",
			logger.String("path", r.URL.Path),
			logger.String("requestID", RequestID(r.Context())),
			logger.String("subject", Subject(r.Context())),
			logger.String("code", code),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind("decode body", ErrBadRequest, err)
	}
	return nil
}

func validGigID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewKind("missing "+field, ErrBadRequest)
	}
	if _, err := uuid.Parse(id); err != nil {
		return WrapKind("invalid "+field, ErrBadRequest, err)
	}
	return nil
}

// parseRange parses two RFC3339 timestamps and checks end is not before start.
func parseRange(startField, startVal, endField, endVal string) (time.Time, time.Time, error) {
	start, err := parseTime(startField, startVal)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTime(endField, endVal)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, WrapKind("invalid "+endField, ErrBadRequest, errInvertedRange)
	}
	return start, end, nil
}

var errInvertedRange = errors.New("end must not be before start")

func parseTime(field, val string) (time.Time, error) {
	if strings.TrimSpace(val) == "" {
		return time.Time{}, NewKind("missing "+field, ErrBadRequest)
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, NewKind("invalid "+field+"; must be RFC3339", ErrBadRequest)
	}
	return t.UTC(), nil
}
