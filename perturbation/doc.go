// Package perturbation records the character substitutions made during a run
// and writes them out once, at the end, to a tab-separated file or a SQLite
// table.
package perturbation
