// Package sender provides in-process implementations of ports.Sender.
package sender
