// Package embedding loads a character embedding space and answers
// nearest-neighbor queries against it.
//
// A space is read either from the text word2vec format (a "<count> <dim>"
// header followed by one "<key> <v1> ... <vdim>" line per entry) or from a
// SQLite file produced by Import. Queries follow the usual word-vector
// convention: cosine similarity against every other key, the query key
// itself excluded, most similar first, ties in file order.
package embedding
