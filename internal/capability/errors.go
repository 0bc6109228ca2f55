package capability

import "errors"

var ErrCapabilityMissing = errors.New("capability missing")

// ProtocolError is returned when a required capability is not implemented.
type ProtocolError struct {
	Verb   string
	Target any
}

func (e *ProtocolError) Error() string {
	return "cannot " + e.Verb + " on this object"
}

func (e *ProtocolError) Unwrap() error { return ErrCapabilityMissing }

func missing(verb string, target any) error {
	return &ProtocolError{Verb: verb, Target: target}
}
