package store

// Status is the driver's only output signal besides populated records.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusBadRequest
	StatusForbidden
	StatusNotImplemented
	StatusServiceUnavailable
	StatusError
	StatusUnexpectedState
)

// NumStatus is the number of distinct status values, for tally arrays.
const NumStatus = int(StatusUnexpectedState) + 1

var statusNames = [NumStatus]string{
	"OK",
	"NOT_FOUND",
	"BAD_REQUEST",
	"FORBIDDEN",
	"NOT_IMPLEMENTED",
	"SERVICE_UNAVAILABLE",
	"ERROR",
	"UNEXPECTED_STATE",
}

func (s Status) String() string {
	if s < 0 || int(s) >= NumStatus {
		return "UNKNOWN"
	}

	return statusNames[s]
}

// FromHTTP maps a response code to a status. Applied identically everywhere a
// response is received.
func FromHTTP(code int) Status {
	if code >= 200 && code < 300 {
		return StatusOK
	}

	switch code {
	case 400:
		return StatusBadRequest
	case 403:
		return StatusForbidden
	case 404:
		return StatusNotFound
	case 501:
		return StatusNotImplemented
	case 503:
		return StatusServiceUnavailable
	}

	return StatusError
}
