// Package pipeline drives the four import phases in fixed order: discovery,
// metadata read, resolution, execution. Each phase pages through rows whose
// persisted status matches its precondition and commits a per-row outcome
// before the next phase can see that row, so an interrupted run resumes from
// whatever the store last recorded.
package pipeline
