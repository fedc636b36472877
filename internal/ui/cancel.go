// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"sync"
)

// cancelManager holds the cancel func of the running upload or bulk
// refresh. It must be used through a pointer: App is copied on every
// Update, the mutex must not be.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores fn, cancelling any previous operation first.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel stops the running operation. Safe to call with nothing running.
func (cm *cancelManager) cancel() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	return true
}
