// Package pkg provides the core libraries for pybale, a Python source
// bundler.
//
// # Overview
//
// Pybale flattens a multi-file Python project into a single executable
// script. The pkg directory is organized along the pipeline:
//
//  1. [pysrc] - Source collection (directory walking, ignore rules)
//  2. [pyast] - Import and guard extraction (tree-sitter parse)
//  3. [classify] - Import classification (stdlib registry, local index)
//  4. [dag] - Dependency graph and topological ordering
//  5. [bundle] - Resolution, assembly and the run orchestrator
//  6. [pip] - Best-effort third-party registration
//
// # Architecture
//
// The typical data flow through pybale:
//
//	Project Directory
//	         ↓
//	pysrc.Collect → pyast.ParseModule → classify.Classify
//	         ↓
//	bundle.buildGraph → dag.Topological → bundle.assemble
//	         ↓
//	Single .py Artifact
//
// Supporting packages: [cache] (persistent classification cache),
// [errors] (structured error codes), [buildinfo] (version metadata).
package pkg
