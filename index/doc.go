// Package index defines a minimal abstraction for vector indexes that are
// built once from (key, embedding) pairs, answer kNN queries by cosine
// similarity, and serialize for persistence. Two implementations are
// provided: a brute-force scan and a vantage-point tree.
package index
