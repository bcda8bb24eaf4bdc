package dispatch

import "sync"

var (
	onceMu     sync.Mutex
	onceTokens = make(map[string]struct{})
)

// Once schedules task on Main the first time token is seen and ignores
// later calls with the same token.
func Once(token string, task Task, opts ...Option) {
	if token == "" || task == nil {
		return
	}
	onceMu.Lock()
	if _, seen := onceTokens[token]; seen {
		onceMu.Unlock()
		return
	}
	onceTokens[token] = struct{}{}
	onceMu.Unlock()

	_, _ = Main.Async(task, opts...)
}
