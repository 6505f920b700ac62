// SPDX-License-Identifier: MPL-2.0

// Package taskgraph is a small incremental step engine. A step declares its
// input files, input values and output paths and carries an ordered list of
// actions. The engine runs steps in dependency order and skips a step when
// its inputs are unchanged and its outputs are exactly what the step
// produced last time.
//
// Two steps may never declare overlapping outputs, and a step may not read
// its own outputs: either would make the step report itself out of date on
// every run. Post-processing of a step's output belongs in that step's
// action list (see Step.DoLast).
package taskgraph
