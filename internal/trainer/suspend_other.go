//go:build !unix

package trainer

import "errors"

const canSuspendProcess = false

func suspendProcess() error {
	return errors.New("suspend is not supported on this platform")
}
