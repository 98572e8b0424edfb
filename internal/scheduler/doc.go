// Package scheduler runs the solver over a batch of jobs under a bounded
// parallelism policy.
//
// Every job moves through Queued, Running and then Succeeded or Failed. A
// failing job never cancels or blocks its siblings: Submit always drains the
// whole batch and returns one Result per job, in input order. Only an invalid
// batch (a bad policy, two jobs writing the same input) is rejected as a
// whole, before anything runs.
//
// The scheduler only fans out processes. Solver threads are the solver's own
// business; the policy merely tells the Runner how many it may use.
package scheduler
