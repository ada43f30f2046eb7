package domain

import "errors"

var (
	// ErrInvalidFile is reported when a selection slot holds no file.
	ErrInvalidFile = errors.New("invalid file")
	// ErrNoGeolocation is the expected outcome for photos without GPS tags.
	ErrNoGeolocation = errors.New("no geolocation data")
	// ErrMetadataRead covers read failures and metadata decode faults.
	ErrMetadataRead = errors.New("metadata read failed")
	// ErrMarkerNotFound is returned by marker lookups for unknown ids.
	ErrMarkerNotFound = errors.New("marker not found")
)

// ErrorRecord is one entry of the error panel.
type ErrorRecord struct {
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// String combines the file name with the message, e.g.
// "beach.jpg: No Geolocation data present.".
func (r ErrorRecord) String() string {
	if r.File == "" {
		return r.Message
	}
	return r.File + ": " + r.Message
}

// ErrorPanel is the rendered form of the error list.
type ErrorPanel struct {
	Errors []string `json:"errors"`
}

// LocateError is a per-file pipeline failure.
type LocateError struct {
	File string
	Err  error
}

func (e *LocateError) Error() string {
	return e.Record().String()
}

func (e *LocateError) Unwrap() error {
	return e.Err
}

// Record converts the failure into the user-facing error record.
func (e *LocateError) Record() ErrorRecord {
	return ErrorRecord{File: e.File, Message: displayMessage(e.Err)}
}

func displayMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFile):
		return "Not a valid file"
	case errors.Is(err, ErrNoGeolocation):
		return "No Geolocation data present."
	default:
		return "Error reading EXIF data"
	}
}
