// Package postbed is the composition root for the postbed library.
//
// It connects the core domain (posts with front matter) with the
// infrastructure adapters (filesystem + git persistence) using the
// Hexagonal Architecture pattern.
//
// Philosophy:
//
// Postbed treats a directory of blog posts as a transactional database.
// Posts are plain markup files named YEAR-MONTH-DAY-title.MARKUP with
// front matter (layout, title, date, categories) at the top. Every
// write is atomic and, by default, versioned as a git commit; the
// commit history doubles as a logical sequence for session-consistent
// replication.
//
// Features:
//
//   - **Hexagonal Architecture**: Core domain is isolated from persistence details.
//   - **Transactional Safe**: Atomic operations, batch transactions, rollback.
//   - **Front Matter First**: Validated layout/title/date/categories metadata.
//   - **Typed Retrieval**: Generic wrapper for type-safe post access.
//   - **Session Consistency**: csmsdb cookie tokens give HTTP clients
//     read-your-writes guarantees across replicated vaults.
//   - **Default Adapter (FS + Git)**: Local markdown files with git versioning.
//
// Usage:
//
//	// Initialize service with functional options
//	svc, err := postbed.New("./blog",
//		postbed.WithAutoInit(true),
//		postbed.WithLogger(logger),
//	)
//
//	// Save a post
//	err = svc.SavePost(ctx, "2026-08-30-welcome", body, meta)
package postbed
