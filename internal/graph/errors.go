package graph

// APIError is an error payload returned by the reporting API itself.
// The upstream message is preserved verbatim.
type APIError struct {
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	Message      string `json:"message"`
	FBTraceID    string `json:"fbtrace_id"`
	StatusCode   int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// TransportError covers failures of the HTTP call itself: network errors,
// timeouts, undecodable responses.
type TransportError struct {
	Message    string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}
