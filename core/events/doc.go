// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - RunStarted: a planning run began
//   - IncumbentFound: the search improved its best roster
//   - RunFinished: a planning run completed or failed
package events
