// Package dag builds and executes the pipeline's dependency graph.
//
// Build turns the loaded config model into a graph of step and resource
// nodes, linking explicit depends_on addresses and implicit references
// discovered in HCL expressions, then validates the result (no unknown
// references, no undeclared outputs, no cycles).
//
// The Executor drains the graph with a worker pool: a node becomes ready
// when its dependency counter hits zero, failures cancel the run and skip
// all transitive dependents, and resources are destroyed as soon as their
// last consuming step finishes.
package dag
