// Package store keeps the latest progress report of each running tool and
// fans updates out to subscribers.
//
// The main components are:
//
//   - [Store]: interface defining storage and subscription operations
//   - [MemoryStore]: in-memory implementation of Store with pub/sub
//   - [Report]: JSON-friendly snapshot of one sync step or load round
//
// Subscribers receive updates via channels with non-blocking sends; slow
// subscribers miss updates rather than block the tools.
package store
