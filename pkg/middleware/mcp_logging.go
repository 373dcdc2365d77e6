package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
)

// rpcCall is the part of a JSON-RPC request worth logging.
type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// rpcReply is the part of a JSON-RPC response worth logging.
type rpcReply struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
}

// outcome classifies a reply as "ok", "rpc_error" or "tool_error" and returns
// the message to log with it.
func (r *rpcReply) outcome() (string, string) {
	if r.Error != nil {
		return "rpc_error", r.Error.Message
	}
	if !r.Result.IsError {
		return "ok", ""
	}
	var texts []string
	for _, c := range r.Result.Content {
		if c.Type == "text" {
			texts = append(texts, c.Text)
		}
	}
	return "tool_error", strings.Join(texts, " ")
}

// teeWriter copies the response body aside while writing it through.
type teeWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (t *teeWriter) Write(b []byte) (int, error) {
	t.buf.Write(b)
	return t.ResponseWriter.Write(b)
}

// MCPRequestLogger logs one debug entry per MCP JSON-RPC exchange: the method,
// the tool and its sanitized arguments, how the call ended and how long it
// took. A nil logger disables it.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var call rpcCall
			fields := []zap.Field{}
			if err := json.Unmarshal(body, &call); err != nil {
				fields = append(fields, zap.Bool("unparsed_request", true))
			}

			tee := &teeWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(tee, r)

			fields = append(fields,
				zap.String("method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", logging.SanitizeArgs(call.Params.Arguments, logging.Redact)),
				zap.Duration("duration", time.Since(start)),
			)

			var reply rpcReply
			if err := json.Unmarshal(tee.buf.Bytes(), &reply); err != nil {
				// Streaming or empty responses (notifications) are not JSON objects.
				logger.Debug("MCP call", append(fields, zap.String("outcome", "unparsed"))...)
				return
			}

			result, message := reply.outcome()
			fields = append(fields, zap.String("outcome", result))
			if reply.Error != nil {
				fields = append(fields, zap.Int("error_code", reply.Error.Code))
			}
			if message != "" {
				fields = append(fields, zap.String("error_message", logging.TruncateForLog(message)))
			}
			logger.Debug("MCP call", fields...)
		})
	}
}
