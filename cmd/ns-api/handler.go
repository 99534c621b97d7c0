package main

import (
	"errors"
	"fmt"
	"net/http"

	"LteFlowReport/internal/codec"
	"LteFlowReport/internal/engine/report"
	"LteFlowReport/internal/logger"
	"LteFlowReport/internal/query"

	"github.com/gorilla/mux"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	querier query.Querier
}

// NewRouter registers the API routes.
func NewRouter(h *APIHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/reports/latest", h.latestReportHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/reports/latest/{metric}", h.latestListingHandler).Methods(http.MethodGet)
	return r
}

// latestReportHandler returns the newest report as JSON.
func (h *APIHandler) latestReportHandler(w http.ResponseWriter, r *http.Request) {
	rep, ts, err := h.querier.LatestReport(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	resp := &structpb.Struct{Fields: map[string]*structpb.Value{
		"timestamp": structpb.NewStringValue(ts),
		"report":    structpb.NewStructValue(codec.ReportToStruct(rep)),
	}}
	jsonBytes, err := protojson.Marshal(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

// latestListingHandler returns one listing of the newest report in the same
// text form the text writer produces.
func (h *APIHandler) latestListingHandler(w http.ResponseWriter, r *http.Request) {
	metric, err := report.ParseMetric(mux.Vars(r)["metric"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rep, ts, err := h.querier.LatestReport(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Report-Timestamp", ts)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteListing(w, rep.Flows, metric, rep.ExpectedCount); err != nil {
		logger.APILog.Warnf("Failed to write listing: %v", err)
	}
}

func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, query.ErrNoReport) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	logger.APILog.Errorf("Query failed: %v", err)
	http.Error(w, fmt.Sprintf("failed to query report: %v", err), http.StatusInternalServerError)
}
