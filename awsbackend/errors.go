package awsbackend

import (
	"errors"

	"github.com/aws/smithy-go"
)

// isErrorCode reports whether err is an AWS API error with one of the given codes.
func isErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}
