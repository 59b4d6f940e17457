// Package taskrunner exposes the embeddable run pipeline: resolve a target's
// dependency order, bind parameters into command lines, and execute the plan.
package taskrunner
