/*
Package dotted provides dot-notation access to an untyped nested mapping,
and a Store that keeps such a mapping in a snapshot artifact that is only
rewritten when its content changes.

Paths

A Tree is addressed by path strings split on a delimiter, "." unless
WithDelimiter says otherwise. Set creates missing branches on the way down.
A scalar met on the way down is not lost: its node becomes a branch that
keeps the scalar as its primary value.

	t := dotted.New()
	t.Set("a", "x")
	t.Set("a.b", "y")

A trailing modifier on a Get key picks what a branch looks like:

	t.Get("a", nil)  // "x", the primary value
	t.Get("a.", nil) // map[b:y], without primary values
	t.Get("a:", nil) // map[@value:x b:y], primary values under PrimaryKey

All leading and trailing delimiter and ":" characters are trimmed from a
Get key, so "..a:" is "a:".

Stores

Open reads a snapshot from a Persist once. Save hashes the tree and writes
a fresh snapshot only when the hash differs from the one last read or
written, so a store can be saved freely. The snapshot records the store's
name, and loading a snapshot written under another name fails with a
*ProvenanceError.

Snapshots are JSON, YAML or protobuf, chosen from the artifact's extension.
The content hash is computed from a canonical form, so the same data has
the same hash in every format.

Persists are provided for memory (NewInMemoryStore), files (persist/file)
and S3 (persist/s3). An Accelerator keeps verified snapshots; a store
opening an artifact uses the cached copy only when its hash matches what it
just read.

Concurrency

Trees and Stores are not safe for concurrent use. Accelerators and the
provided Persists are.
*/
package dotted
