package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/crm/internal/api/graph"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type GraphQLHandler struct {
	executor *graph.Executor
}

func NewGraphQLHandler(executor *graph.Executor) *GraphQLHandler {
	if executor == nil {
		panic("graphql executor cannot be nil")
	}
	return &GraphQLHandler{executor: executor}
}

// Serve POST /graphql
// body: {query, variables, operationName}, 回應 {data, errors}
// 查詢本身的錯誤依 GraphQL 慣例回 200, 只有 body 無法解析才回 400
func (h *GraphQLHandler) Serve(w http.ResponseWriter, r *http.Request) {
	var req graph.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]interface{}{
			"errors": []map[string]string{{"message": "invalid request body"}},
		})
		return
	}
	if req.Query == "" {
		writeJSON(w, r, http.StatusBadRequest, map[string]interface{}{
			"errors": []map[string]string{{"message": "query is required"}},
		})
		return
	}

	res := h.executor.Execute(r.Context(), req)
	if res.HasErrors() {
		zerolog.Ctx(r.Context()).Debug().Interface("errors", res.Errors).Msg("graphql errors")
	}
	writeJSON(w, r, http.StatusOK, res)
}

// writeJSON header 已送出, 編碼失敗只能記錄
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("write response failed")
	}
}
