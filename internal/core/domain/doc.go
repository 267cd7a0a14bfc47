// Package domain defines the core business entities for Responsa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An indexed passage of corpus text with its embedding
//   - Candidate: A document plus its rank in one retriever's result list
//   - FusedResult: A document after reciprocal rank fusion
//   - RankedPassage: A document after cross-encoder re-ranking
//   - Citation: A numbered source reference returned with an answer
//   - Event: The closed union of ask-stream event kinds
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
