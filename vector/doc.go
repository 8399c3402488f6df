// Package vector persists a character embedding space in SQLite. It includes:
//   - Store: embeddings table (key, file position, BLOB vector) plus a
//     vector_storage table holding a serialized index snapshot
//   - Schema helpers to create both tables
//   - Embedding encoding (BLOB) shared with the engine's vec_cosine function
package vector
