package setting

import "errors"

// MessageID references a localized, user-facing message.
type MessageID string

const (
	MsgLocalStorageException MessageID = "local_storage_exception"
	MsgSaveDataErr           MessageID = "save_data_err"
	MsgSettingsSaved         MessageID = "settings_saved"
)

const defaultLocalStorageMessage = "Fail to read/write data to local storage"

// DomainError is a failure the caller is expected to handle and show to the
// user. LocalStorageError is the only implementation.
type DomainError interface {
	error
	MessageID() MessageID
	domainError()
}

// LocalStorageError reports that settings could not be written to the
// preference store.
type LocalStorageError struct {
	Message string
	Cause   error
	MsgID   MessageID
}

// NewLocalStorageError wraps cause with the given user-facing message
// reference. Empty message and id fall back to the generic storage failure.
func NewLocalStorageError(cause error, id MessageID) *LocalStorageError {
	e := &LocalStorageError{Cause: cause, MsgID: id}
	if cause != nil {
		e.Message = cause.Error()
	}
	if e.Message == "" {
		e.Message = defaultLocalStorageMessage
	}
	if e.MsgID == "" {
		e.MsgID = MsgLocalStorageException
	}
	return e
}

func (e *LocalStorageError) Error() string {
	if e.Message == "" {
		return defaultLocalStorageMessage
	}
	return e.Message
}

func (e *LocalStorageError) Unwrap() error {
	return e.Cause
}

func (e *LocalStorageError) MessageID() MessageID {
	if e.MsgID == "" {
		return MsgLocalStorageException
	}
	return e.MsgID
}

func (*LocalStorageError) domainError() {}

// AsDomainError reports whether err carries a DomainError.
func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
