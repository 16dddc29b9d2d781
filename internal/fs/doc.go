// Package fs abstracts the few file system operations the image writer needs,
// so tests can inject I/O failures.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 0})
//	err := image.Write(ctx, g, path, image.WithFileSystem(ffs))
package fs
