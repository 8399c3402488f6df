// Package bruteforce provides a vector index that answers kNN queries by
// scanning all vectors and scoring via cosine similarity. Its compact binary
// format doubles as the snapshot stored in the vector_storage table.
package bruteforce
