package core

import "fmt"

// ServiceError reports a failed call to the external advisor service.
// Network, auth, quota and malformed-response failures all map to it.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("advisor service: %v", e.Err)
	}
	return fmt.Sprintf("advisor service: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// StoreReadError reports that persisted data could not be read and the
// store was treated as empty. Quarantine holds the path the unreadable
// file was moved to, if any.
type StoreReadError struct {
	Path       string
	Quarantine string
	Err        error
}

func (e *StoreReadError) Error() string {
	if e.Quarantine != "" {
		return fmt.Sprintf("read %s (moved to %s): %v", e.Path, e.Quarantine, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }
