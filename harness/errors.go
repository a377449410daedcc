package harness

import (
	"fmt"
	"strings"
	"time"
)

// IdentityResolutionError means the caller's account identifier could not be resolved, so
// resource addresses cannot be constructed and provisioning cannot begin.
type IdentityResolutionError struct {
	Err error
}

func (e IdentityResolutionError) Error() string {
	return fmt.Sprintf("could not resolve caller account identity: %s", e.Err)
}

func (e IdentityResolutionError) Unwrap() error { return e.Err }

// ProvisioningError means one of the resource-creation steps failed. Steps after the
// failing one were not attempted; resources created by earlier steps have already been
// cleaned up on a best-effort basis.
type ProvisioningError struct {
	// Step names the creation step that failed ("create queue", "create rule", "create target").
	Step string
	Err  error
}

func (e ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at step %q: %s", e.Step, e.Err)
}

func (e ProvisioningError) Unwrap() error { return e.Err }

// ReadinessTimeoutError means the routing rule never delivered a probe event to the inbox
// within the configured timeout.
type ReadinessTimeoutError struct {
	Timeout time.Duration
}

func (e ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("routing rule was not ready within %s", e.Timeout)
}

// NoMessagesError means every receive attempt came back empty.
type NoMessagesError struct {
	Attempts int
}

func (e NoMessagesError) Error() string {
	return fmt.Sprintf("no messages received after %d receive attempts", e.Attempts)
}

// PublishError means the event-routing backend did not accept a published event. Callers
// must treat the event as not delivered.
type PublishError struct {
	Err error
}

func (e PublishError) Error() string {
	return fmt.Sprintf("event publish failed: %s", e.Err)
}

func (e PublishError) Unwrap() error { return e.Err }

// TeardownFailure records one teardown step that failed, leaving the named resource
// behind for manual removal.
type TeardownFailure struct {
	// Resource is the kind of resource ("target", "rule", "queue").
	Resource string
	// Name is the resource's generated name or identifier.
	Name string
	Err  error
}

// TeardownError aggregates the failures of a Destroy call. Every teardown step is
// attempted even when an earlier one fails, so this can name more than one leaked
// resource.
type TeardownError struct {
	Failures []TeardownFailure
}

func (e TeardownError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("could not remove %s %q: %s", f.Resource, f.Name, f.Err))
	}
	return "teardown incomplete, manual cleanup required: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying step errors for errors.Is/As.
func (e TeardownError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
