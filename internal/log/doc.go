// Package log provides the application's slog setup.
//
// ContextHandler wraps any slog.Handler and:
//   - adds experiment_id and image_id attributes carried in the context
//   - replaces raw byte slices (image data) with their length so a stray
//     attribute never dumps megabytes of pixels into the log
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	ctx = log.WithExperiment(ctx, experimentID)
//	ctx = log.WithImage(ctx, imageID)
//	logger.InfoContext(ctx, "image analyzed", "scratch_index", idx)
//	// ... experiment_id=... image_id=... scratch_index=0.42
//
// Records logged without a context (logger.Info) carry no ids.
package log
