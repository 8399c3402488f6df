// Package cover provides a vantage-point tree over cosine similarity.
// Pruning uses the chord distance between unit-normalized vectors, which is a
// true metric and monotone in cosine similarity, so rankings agree with the
// brute-force index. It persists with the brute-force encoding.
package cover
