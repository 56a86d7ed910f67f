package client

import "fmt"

// Kind classifies every failure an API call can surface. Callers switch on
// Kind; they never parse Message.
type Kind string

const (
	KindInvalidCredentials     Kind = "INVALID_CREDENTIALS"
	KindAccountDisabled        Kind = "ACCOUNT_DISABLED"
	KindEmailAlreadyExists     Kind = "EMAIL_ALREADY_EXISTS"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindForbidden              Kind = "FORBIDDEN"
	KindNetworkOrServerError   Kind = "NETWORK_OR_SERVER_ERROR"
	KindUploadTransportFailure Kind = "UPLOAD_TRANSPORT_FAILURE"
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func apiError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// kindForStatus maps a non-2xx API status to the closed taxonomy. Statuses
// the server never returns collapse into NetworkOrServerError rather than
// leaking raw codes to callers.
func kindForStatus(status int) Kind {
	switch status {
	case 401:
		return KindUnauthorized
	case 403:
		return KindForbidden
	default:
		return KindNetworkOrServerError
	}
}

// authKindForStatus is the mapping on the auth endpoints, where the same
// statuses carry credential meaning.
func authKindForStatus(status int) Kind {
	switch status {
	case 401:
		return KindInvalidCredentials
	case 403:
		return KindAccountDisabled
	case 409:
		return KindEmailAlreadyExists
	default:
		return KindNetworkOrServerError
	}
}
