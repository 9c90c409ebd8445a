// Package errors provides classified error primitives used across bookbuilder.
//
// A ClassifiedError carries a category (metadata, stage, dependency, epub, ...),
// a severity, a retry hint for the caller and optional user guidance. The CLI
// adapter turns them into exit codes and console messages.
//
//	err := errors.DependencyError("gulp is not installed").
//		WithHint("Run `npm install` in the project root").
//		WithContext("binary", "gulp").
//		WithCause(original).
//		Build()
package errors
