// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package executor provides completion scheduling contexts for enqueued calls.
package executor

// Inline runs completion callbacks on the goroutine which delivers them.
// It is the default completion executor.
type Inline struct{}

// Execute runs f synchronously.
func (Inline) Execute(f func()) {
	f()
}
