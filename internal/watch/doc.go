// Package watch keeps the pipeline running continuously. It monitors every
// class's lecture-input and reading-input directory and triggers a batch run
// once the filesystem has been quiet for the configured debounce interval.
package watch
