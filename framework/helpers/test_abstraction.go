package helpers

import "fmt"

// TestContext is a minimal interface for types like *testing.T representing a test that
// can fail. Functions can use this to avoid a specific dependency on the testing package.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
}

// TestRecorder is a TestContext implementation that only records failures, so tests of
// test logic can assert on what would have been reported.
type TestRecorder struct {
	Errors     []string
	Terminated bool
}

func (t *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	t.Errors = append(t.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (t *TestRecorder) FailNow() {
	t.Terminated = true
}
