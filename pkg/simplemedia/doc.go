// Package simplemedia binds uploaded media to content entities and manages
// the lifecycle of the stored objects behind them.
//
// A Service creates, updates and deletes the entities of five kinds (events,
// education programs, the founder profile, the history page and team
// members). Each kind declares named media slots; the Binder uploads new
// payloads into a slot's folder on a MediaStore, writes the resulting
// MediaReference into the entity, and, once the entity has been stored,
// retires the single-slot references the new uploads replace. Deleting an
// entity cascades to every object it references.
//
// Storage Model
//
// Entities are stored as Documents: a JSON body plus the fields backends
// index for listing and search. Repositories for memory, Postgres and
// MongoDB are provided under repo/, and blob stores for memory, the local
// filesystem and S3 under storage/. The remote package adapts a blob store
// into a MediaStore, and transform derives the transformed URLs served to
// clients.
//
// Failure Model
//
// When a document write fails, the new uploads are discarded and the
// previous references are left alone. Upload and retirement failures never
// fail the entity write. They are reported on MutationResult and
// DeleteResult so the caller can surface them, and objects left behind
// can be found later with the reconcile package.
package simplemedia
