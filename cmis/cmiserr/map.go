package cmiserr

import (
	"encoding/json"
	"net/http"
	"strings"
)

// wireKinds maps lower-cased wire exception names to kinds. Only the kinds
// a conforming server may put in an error envelope appear here; the purely
// transport-derived kinds (unauthorized, connection, ...) do not.
var wireKinds = map[string]Kind{
	"invalidargument":         KindInvalidArgument,
	"notsupported":            KindNotSupported,
	"objectnotfound":          KindObjectNotFound,
	"permissiondenied":        KindPermissionDenied,
	"constraint":              KindConstraint,
	"contentalreadyexists":    KindContentAlreadyExists,
	"filternotvalid":          KindFilterNotValid,
	"nameconstraintviolation": KindNameConstraintViolation,
	"storage":                 KindStorage,
	"streamnotsupported":      KindStreamNotSupported,
	"updateconflict":          KindUpdateConflict,
	"versioning":              KindVersioning,
	"runtime":                 KindRuntime,
}

// Map converts an HTTP status plus an optional JSON error envelope into one
// typed error. A parsable envelope with a recognized exception name wins;
// an unrecognized name combined with status 503 maps to serviceUnavailable;
// a malformed envelope is swallowed and mapping falls back to the status
// table. Map never returns nil.
func Map(status int, message string, body []byte) *Error {
	e := &Error{
		Status:  status,
		Message: message,
		Content: string(body),
	}

	if exception, wireMessage, extra, ok := parseEnvelope(body); ok {
		if wireMessage != "" {
			e.Message = wireMessage
		}
		e.Extra = extra
		if kind, known := wireKinds[strings.ToLower(exception)]; known {
			e.Kind = kind
			return e
		}
		if status == http.StatusServiceUnavailable {
			e.Kind = KindServiceUnavailable
			return e
		}
	}

	e.Kind = kindForStatus(status)
	return e
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidArgument
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindPermissionDenied
	case http.StatusNotFound:
		return KindObjectNotFound
	case http.StatusMethodNotAllowed:
		return KindNotSupported
	case http.StatusProxyAuthRequired:
		return KindProxyAuthentication
	case http.StatusConflict:
		return KindConstraint
	case http.StatusTooManyRequests:
		return KindTooManyRequests
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	}
	if status >= 300 && status < 400 {
		return KindConnection
	}
	return KindRuntime
}

// parseEnvelope extracts the exception name, message and remaining
// diagnostic keys from a JSON error body. Returns ok=false when the body is
// not a JSON object carrying an exception string.
func parseEnvelope(body []byte) (exception, message string, extra map[string]any, ok bool) {
	if len(body) == 0 {
		return "", "", nil, false
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", "", nil, false
	}
	exception, ok = envelope["exception"].(string)
	if !ok || exception == "" {
		return "", "", nil, false
	}
	message, _ = envelope["message"].(string)
	for k, v := range envelope {
		if k == "exception" || k == "message" {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return exception, message, extra, true
}
