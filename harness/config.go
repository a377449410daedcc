package harness

import (
	"errors"
	"fmt"
	"os"

	"github.com/eventbridge-contrib/session-harness/framework/helpers"
)

// SessionConfig is the immutable construction-time configuration of a Client.
type SessionConfig struct {
	// ServiceName is used in all generated resource names.
	ServiceName string `json:"serviceName" yaml:"serviceName"`
	// ServiceSource is the event source the session's rule filters on, and is also applied
	// as a tag to the created resources. It must uniquely identify this test run's events:
	// a value that collides with an unrelated production source would route that source's
	// events into the inbox.
	ServiceSource string `json:"serviceSource" yaml:"serviceSource"`
	// BusName is the event bus the rule is created under and events are published to.
	BusName string `json:"busName" yaml:"busName"`
	// Region is used to construct resource addresses.
	Region string `json:"region" yaml:"region"`
	// DetailTypes optionally restricts the rule to these detail types (plus the session's
	// probe detail type). Empty means the rule matches on source alone.
	DetailTypes []string `json:"detailTypes,omitempty" yaml:"detailTypes,omitempty"`
}

// Validate reports the first missing required field.
func (c SessionConfig) Validate() error {
	switch {
	case c.ServiceName == "":
		return errors.New("serviceName is required")
	case c.ServiceSource == "":
		return errors.New("serviceSource is required")
	case c.BusName == "":
		return errors.New("busName is required")
	case c.Region == "":
		return errors.New("region is required")
	}
	return nil
}

// LoadSessionConfigFile reads a SessionConfig from a JSON or YAML file and validates it.
func LoadSessionConfigFile(path string) (SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var config SessionConfig
	if err := helpers.ParseJSONOrYAML(data, &config); err != nil {
		return SessionConfig{}, fmt.Errorf("error parsing %q: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return SessionConfig{}, fmt.Errorf("invalid config in %q: %w", path, err)
	}
	return config, nil
}
