package rest

import (
	"encoding/json"
	"net/http"

	"github.com/bwise1/huddle_karma/util"
	"github.com/bwise1/huddle_karma/util/tracing"
	log "github.com/sirupsen/logrus"
)

type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func tracingFields(tc *tracing.Context) log.Fields {
	if tc == nil {
		return log.Fields{}
	}
	return log.Fields{"request_id": tc.RequestID, "request_source": tc.RequestSource}
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	entry := log.WithFields(tracingFields(tc)).WithError(err).WithField("status", status)
	if util.StatusCode(status) >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

func respondWithData(data interface{}, message, status string) *ServerResponse {
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       data,
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	log.WithError(err).WithField("status", status).Warn(message)

	resp := ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
	respByte, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		http.Error(w, message, resp.StatusCode)
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Error("unable to write response")
	}
}
