// Package services implements the core business logic: the retrieval engine,
// the corpus expansion controller, the ingest pipeline, and the workflow
// state machine that sequences them.
package services
