package dag

import (
	"sync"
	"sync/atomic"

	"github.com/stayops/pricegrid/internal/config"
)

// Graph is the complete, validated execution plan: a collection of nodes
// keyed by their unique ID.
type Graph struct {
	Nodes map[string]*Node
}

// NodeType distinguishes between different kinds of nodes in the graph.
type NodeType int

const (
	// StepNode represents a node that executes a task.
	StepNode NodeType = iota
	// ResourceNode represents a node that manages a stateful resource.
	ResourceNode
)

// State represents the execution state of a node in the graph.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies to complete.
	Pending State = iota
	// Running indicates the node is currently being executed by a worker.
	Running
	// Done indicates the node finished successfully.
	Done
	// Failed indicates the node failed or was skipped due to an upstream failure.
	Failed
)

// Node is a single vertex in the execution graph, representing one unit of
// work (a step) or a stateful entity (a resource).
type Node struct {
	// ID is the unique, machine-readable identifier for the node.
	// Example: "step.csv_source.raw_bookings"
	ID string
	// Name is the human-readable instance name from the configuration.
	Name string
	// Type distinguishes between step and resource nodes.
	Type NodeType

	// StepConfig holds the configuration for a step node. It is nil for resources.
	StepConfig *config.Step
	// ResourceConfig holds the configuration for a resource node. It is nil for steps.
	ResourceConfig *config.Resource

	// Deps holds the set of nodes this node depends on (predecessors).
	Deps map[string]*Node
	// Dependents holds the set of nodes that depend on this node (successors).
	Dependents map[string]*Node

	// Error stores any error that occurred during the node's execution.
	Error error
	// Output stores the result of the node's execution for downstream nodes.
	Output any

	// depCount is an atomic counter for unmet dependencies, used by the executor.
	depCount atomic.Int32
	// descendantCount counts a resource's step dependents, used for
	// efficient destruction as soon as the last consumer finishes.
	descendantCount atomic.Int32
	// state is the node's current execution state, managed atomically.
	state atomic.Int32
	// skipOnce ensures a node is marked as skipped and processed exactly once.
	skipOnce sync.Once
	// destroyOnce ensures a resource's destruction logic runs exactly once.
	destroyOnce sync.Once
}

// SetInitialCounters primes the dependency and descendant counters from the
// linked graph topology. Must be called once, after linking and before
// execution.
func (n *Node) SetInitialCounters() {
	n.depCount.Store(int32(len(n.Deps)))
	if n.Type == ResourceNode {
		count := int32(0)
		for _, dependent := range n.Dependents {
			if dependent.Type == StepNode {
				count++
			}
		}
		n.descendantCount.Store(count)
	}
}

// GetState returns the node's current execution state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// setState transitions the node to a new execution state.
func (n *Node) setState(s State) {
	n.state.Store(int32(s))
}
