// Package output owns the transformed-lines and linked-lines files of a
// perturbation run.
package output
