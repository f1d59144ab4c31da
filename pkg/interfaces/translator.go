package interfaces

import "context"

// TranslatorClient performs a single text translation against an external
// machine-translation API. Implementations own transport concerns (timeouts,
// retry, request sizing); callers treat a returned error as "leave the text in
// its source language".
type TranslatorClient interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}
