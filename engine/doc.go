// Package engine opens SQLite databases through the pure-Go modernc.org/sqlite
// driver and registers the vec_cosine scalar function used to rank character
// embeddings in SQL. Every package that touches SQLite goes through Open so
// the driver and its functions are shared.
package engine
