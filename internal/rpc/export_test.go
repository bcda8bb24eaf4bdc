package rpc

import "time"

func SetNow(fn func() time.Time) func() {
	prev := now
	now = fn
	return func() { now = prev }
}
