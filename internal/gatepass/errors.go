package gatepass

// ValidationError rejects malformed input before any state is touched.
// Field names the offending request field when there is one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// AuthorizationError denies an action. Restriction names the violated
// rule and becomes the response message.
type AuthorizationError struct {
	Restriction string
}

func (e *AuthorizationError) Error() string { return e.Restriction }

// StateConflictError rejects a transition the pass's current lifecycle
// state does not admit. Current carries the status observed under lock.
type StateConflictError struct {
	Op      string
	Current Status
	Message string
}

func (e *StateConflictError) Error() string { return e.Message }

// NotFoundError reports a missing resource. Message overrides the
// default text when the lookup has its own wording (QR scans).
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Resource + " not found"
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func conflict(op string, current Status, message string) error {
	return &StateConflictError{Op: op, Current: current, Message: message}
}
