// Package services contains the core pipeline logic.
//
// Services implement the driving ports and depend only on driven ports,
// never on concrete adapters. The ask pipeline is composed of:
//
//   - Retriever: query embedding plus concurrent vector and lexical search
//   - FuseRankings: reciprocal rank fusion of the two candidate lists
//   - Ranker: cross-encoder re-ranking with fail-closed fallback
//   - Assembler: citation-grounded prompt construction
//   - AskService: the orchestrator that runs the stages and streams events
//
// # Import Rules
//
//   - Can Import: domain, ports/driven, ports/driving, logger
//   - Cannot Import: Any adapter package
package services
