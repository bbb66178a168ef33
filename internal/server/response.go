package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/planner"
	"github.com/persona-agent/internal/storage"
)

// Response codes carried in the envelope
const (
	CodeSuccess = 0

	CodeInvalidParams = 1000
	CodeMissingParams = 1001
	CodeNotFound      = 1002
	CodeNoAnalysis    = 1003

	CodeServerError  = 2000
	CodeGatewayError = 2005
)

// CodeMessages are the default envelope messages
var CodeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeInvalidParams: "无效的参数",
	CodeMissingParams: "缺少必要参数",
	CodeNotFound:      "记录不存在",
	CodeNoAnalysis:    "尚未完成人设分析",
	CodeServerError:   "服务器内部错误",
	CodeGatewayError:  "模型服务调用失败",
}

// Envelope wraps every JSON reply
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Code: CodeSuccess, Message: CodeMessages[CodeSuccess], Data: data})
}

func writeCode(w http.ResponseWriter, status, code int, message string, data interface{}) {
	if message == "" {
		message = CodeMessages[code]
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	writeJSON(w, status, Envelope{Code: code, Message: message, Data: data})
}

// writeError maps a flow error to a status and envelope code
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		writeCode(w, http.StatusBadRequest, CodeMissingParams, verr.Error(), map[string]interface{}{"fields": verr.Fields})
	case errors.Is(err, storage.ErrNotFound):
		writeCode(w, http.StatusNotFound, CodeNotFound, "", nil)
	case errors.Is(err, planner.ErrNoAnalysis):
		writeCode(w, http.StatusConflict, CodeNoAnalysis, "", nil)
	case ai.KindOf(err) != "":
		s.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Gateway failure")
		writeCode(w, http.StatusBadGateway, CodeGatewayError, err.Error(), map[string]interface{}{"kind": ai.KindOf(err)})
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeCode(w, http.StatusInternalServerError, CodeServerError, err.Error(), nil)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
