// Package handlers holds the HTTP handlers for interfaces/http/rest.
// Grounded on node_handler.go's decode-call-encode shape, narrowed to BQL's
// single operation.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"bql/application/bql"
	"bql/application/bql/project"
	apperrors "bql/pkg/errors"
)

// BQLHandler serves the single query endpoint §6 names.
type BQLHandler struct {
	engine *bql.Engine
	logger *zap.Logger
}

// NewBQLHandler builds a BQLHandler bound to engine.
func NewBQLHandler(engine *bql.Engine, logger *zap.Logger) *BQLHandler {
	return &BQLHandler{engine: engine, logger: logger}
}

type queryRequest struct {
	Query         string `json:"query"`
	ActiveGraphID string `json:"active_graph_id"`
	Confirm       bool   `json:"confirm"`
}

type rowValue struct {
	IsSet bool   `json:"is_set"`
	Node  *node  `json:"node,omitempty"`
	Field string `json:"field,omitempty"`
}

type node struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TypeID          string `json:"type_id,omitempty"`
	Label           string `json:"label,omitempty"`
	ForegroundColor string `json:"foreground_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
}

type queryResponse struct {
	Kind    string          `json:"kind"`
	Rows    [][]rowValue    `json:"rows,omitempty"`
	Report  *mutationReport `json:"report,omitempty"`
	Preview *deletePreview  `json:"preview,omitempty"`
}

type mutationReport struct {
	Created  []string `json:"created"`
	Updated  []string `json:"updated"`
	Deleted  []string `json:"deleted"`
	Warnings []string `json:"warnings"`
}

type deletePreview struct {
	WouldDeleteNodes []string `json:"would_delete_nodes"`
	WouldDeleteEdges []string `json:"would_delete_edges"`
}

// Query handles POST /v1/query, the sole HTTP surface over Engine.Execute.
func (h *BQLHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ActiveGraphID == "" {
		writeError(w, http.StatusBadRequest, "active_graph_id is required")
		return
	}

	result, err := h.engine.Execute(r.Context(), req.Query, bql.Options{
		ActiveGraphID: req.ActiveGraphID,
		Confirm:       req.Confirm,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}

func (h *BQLHandler) writeEngineError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		h.logger.Error("unclassified engine error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeService:
		status = http.StatusBadGateway
	case apperrors.ErrorTypeInternal:
		status = http.StatusInternalServerError
	}
	h.logger.Warn("engine returned error", zap.String("type", string(appErr.Type)), zap.String("message", appErr.Message))
	writeJSON(w, status, map[string]any{
		"error":    appErr.Message,
		"type":     appErr.Type,
		"position": appErr.Position,
	})
}

func toResponse(r *bql.Result) queryResponse {
	resp := queryResponse{}
	switch r.Kind {
	case bql.ResultRows:
		resp.Kind = "rows"
		resp.Rows = make([][]rowValue, len(r.Rows))
		for i, row := range r.Rows {
			resp.Rows[i] = make([]rowValue, len(row))
			for j, v := range row {
				resp.Rows[i][j] = toRowValue(v)
			}
		}
	case bql.ResultMutationReport:
		resp.Kind = "mutation_report"
		resp.Report = &mutationReport{
			Created:  r.Report.Created,
			Updated:  r.Report.Updated,
			Deleted:  r.Report.Deleted,
			Warnings: r.Report.Warnings,
		}
	case bql.ResultDeletePreview:
		resp.Kind = "delete_preview"
		resp.Preview = &deletePreview{
			WouldDeleteNodes: r.Preview.WouldDeleteNodes,
			WouldDeleteEdges: r.Preview.WouldDeleteEdges,
		}
	}
	return resp
}

func toRowValue(v project.Value) rowValue {
	if !v.IsSet {
		return rowValue{IsSet: false}
	}
	if v.Node != nil {
		return rowValue{IsSet: true, Node: &node{
			ID:              v.Node.ID,
			Name:            v.Node.Name,
			TypeID:          v.Node.TypeID,
			Label:           v.Node.Label,
			ForegroundColor: v.Node.ForegroundColor,
			BackgroundColor: v.Node.BackgroundColor,
		}}
	}
	return rowValue{IsSet: true, Field: v.Field}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
