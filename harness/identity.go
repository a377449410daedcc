package harness

import (
	"crypto/rand"
	"fmt"
)

const tokenLength = 13
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SessionIdentity holds the generated names for one test session's resources. All of the
// names embed a single random token, so resources belonging to the same session are
// traceable to each other and cannot collide with another session's resources.
//
// A SessionIdentity is derived once per Client and is immutable for the session's lifetime.
type SessionIdentity struct {
	// Token is a random lowercase-alphanumeric string unique to this session.
	Token string
	// QueueName is the name of the session's private inbox queue.
	QueueName string
	// RuleName is the name of the session's event-routing rule.
	RuleName string
	// TargetID is the identifier of the target binding RuleName to QueueName.
	TargetID string
	// ProbeDetailType is the reserved detail type used only by readiness probe events.
	ProbeDetailType string
}

// NewSessionIdentity generates a fresh token and derives all resource names from it.
func NewSessionIdentity(serviceName string) SessionIdentity {
	token := newToken()
	return SessionIdentity{
		Token:           token,
		QueueName:       fmt.Sprintf("%s-tests-queue-%s", serviceName, token),
		RuleName:        fmt.Sprintf("%s-tests-rule-%s", serviceName, token),
		TargetID:        fmt.Sprintf("%s-tests-target-%s", serviceName, token),
		ProbeDetailType: fmt.Sprintf("Test Event %s", token),
	}
}

func newToken() string {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand reads from the OS entropy source; if that is broken there is
		// nothing sensible the harness can do.
		panic(fmt.Sprintf("could not generate session token: %s", err))
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}
