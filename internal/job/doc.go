// Package job defines the contract a unit of work must satisfy to be
// orchestrated: a side-effect-free Check that verifies the job's goal, a
// Run that makes Check pass, and an optional Cleanup. Jobs are declared
// to the engine as Descriptors: an identity, a dependency list, optional
// retry overrides, and a factory that produces a fresh instance for
// every attempt.
package job
