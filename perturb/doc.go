// Package perturb replaces characters of input text with neighbors drawn from
// an embedding space.
//
// A Cache turns each distinct character's nearest neighbors into a sampling
// Distribution once per run. The Engine walks input lines word by word and
// character by character, substitutes with the configured probability, and
// reports every substitution to a Recorder and every line to a LineWriter.
package perturb
