// Package domain contains the core business entities for askdoc:
// documents, chunks, search results, answer records, and the settings
// that govern chunking, retrieval, and batch processing.
//
// Domain types carry no infrastructure dependencies. They are shared by
// services, ports, and adapters.
package domain
