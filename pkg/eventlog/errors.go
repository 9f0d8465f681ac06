package eventlog

import "errors"

var ErrUnknownVersion = errors.New("eventlog: unknown log version")
