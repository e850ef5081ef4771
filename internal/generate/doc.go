// Package generate turns transcripts and reading texts into markdown study
// notes through a language model.
//
// A bounded worker pool shares one Generator client. Transient failures such
// as rate limits and timeouts are retried with capped exponential backoff;
// content failures are terminal on the first attempt. Each note lands in the
// class's output directory under the source file's stem.
package generate
