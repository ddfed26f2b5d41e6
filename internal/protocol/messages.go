package protocol

// Operations understood by the fetch socket
const (
	// OpStat asks for the size of an object
	OpStat = "stat"

	// OpFetch asks for the bytes [Start, End) of an object
	OpFetch = "fetch"
)

// FetchRequest is the client -> server frame on the fetch socket.
// It is sent as a JSON text message; a successful OpFetch is answered
// with a single binary message carrying the payload, a successful
// OpStat with a JSON StatResponse, and any failure with a JSON
// ErrorResponse.
type FetchRequest struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Start int64  `json:"start,omitempty"`
	End   int64  `json:"end,omitempty"`
}

// StatResponse reports an object's declared size
type StatResponse struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ErrorResponse reports a failed request on the fetch socket
type ErrorResponse struct {
	Error string `json:"error"`
}
