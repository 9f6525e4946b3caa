// Copyright 2025 CrewSync Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shutdown

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Manager tracks graceful shutdown state for the process.
type Manager struct {
	shuttingDown int32 // atomic flag: 0 = running, 1 = shutting down
	shutdownChan chan struct{}
}

// NewManager creates a new shutdown manager.
func NewManager() *Manager {
	return &Manager{
		shutdownChan: make(chan struct{}),
	}
}

// IsShuttingDown reports whether shutdown has been triggered.
func (m *Manager) IsShuttingDown() bool {
	return atomic.LoadInt32(&m.shuttingDown) == 1
}

// Shutdown triggers graceful shutdown.
// It returns false if shutdown was already in progress.
func (m *Manager) Shutdown() bool {
	if !atomic.CompareAndSwapInt32(&m.shuttingDown, 0, 1) {
		return false
	}
	close(m.shutdownChan)
	return true
}

// Wait returns a channel closed when shutdown is triggered.
func (m *Manager) Wait() <-chan struct{} {
	return m.shutdownChan
}

// HandleSignals triggers shutdown on SIGINT or SIGTERM.
func (m *Manager) HandleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		m.Shutdown()
	}()
}
