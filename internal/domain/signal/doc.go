// Package signal provides the reactive containers the shell panels consume.
//
// Components:
//   - Signal: A single value with synchronous change subscribers
//   - Ordered: Keyed collection sorted by order, stable by insertion
//
// Subscribers run on the goroutine that performed the write, after the write
// is visible to readers. A subscriber added during a notification does not
// receive that notification.
package signal
