package embeddings

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// known transport-level failure fragments; matched case-insensitively
var networkFailurePatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"dial tcp",
	"eof",
}

// wrapNetworkErr tags transport failures with ErrNetworkUnavailable and
// leaves every other error untouched.
func wrapNetworkErr(err error) error {
	if err == nil {
		return nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	msg := strings.ToLower(err.Error())
	for _, p := range networkFailurePatterns {
		if strings.Contains(msg, p) {
			return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
		}
	}
	return err
}
