package handle

import (
	"net/http"

	"github.com/adamwoolhether/fetcher/engine"
)

// Classify turns an engine result into an error, or nil for engine.CodeOK.
// The checks run in order: a timeout code wins over any status, then a 404
// status, then everything else.
func Classify(url string, httpCode int, code engine.Code, message string) error {
	if code == engine.CodeOK {
		return nil
	}

	err := &TransferError{
		URL:      url,
		HTTPCode: httpCode,
		Code:     code,
		Message:  message,
	}

	switch {
	case code == engine.CodeOperationTimedOut:
		err.Err = ErrTimeout
	case httpCode == http.StatusNotFound:
		err.Err = ErrNotFound
	default:
		err.Err = ErrTransfer
	}

	return err
}
