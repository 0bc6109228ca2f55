package queues

import "errors"

var ErrUnknownQueue = errors.New("unknown queue")
