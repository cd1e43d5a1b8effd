// Package metrics scores closed-loop runs. Each metric implements
// [sim.Metric] and is observed once per controller sample.
package metrics
