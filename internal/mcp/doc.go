// Package mcp implements the Model Context Protocol (MCP) server for packcheck.
//
// The MCP server exposes three tools over the loaded pack:
//   - pack_info: size, row counts, embedding dimension and a sample chunk
//   - search_pack: hybrid BM25 + embedding search fused with RRF
//   - verify_pack: read-only consistency checks
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout carries protocol frames only.
//
// # Basic Usage
//
//	packcheck serve --pack ./packs/fluorite-pack.sqlite3
//
// # Tool: search_pack
//
//	Request:
//	{
//	  "name": "search_pack",
//	  "arguments": {
//	    "query": "reciprocal rank fusion",
//	    "top": 5,
//	    "fts_only": false
//	  }
//	}
//
//	Response:
//	{
//	  "pack": "/abs/path/fluorite-pack.sqlite3",
//	  "response": {
//	    "query": "reciprocal rank fusion",
//	    "top": 5,
//	    "mode": "hybrid",
//	    "results": [
//	      {"rank": 1, "doc_id": 3, "chunk_id": 41, "ord": 2,
//	       "bm25": -7.21, "cosine": 0.83, "rrf": 0.0325,
//	       "title": "Ranking", "text": "..."}
//	    ]
//	  }
//	}
//
// # Errors
//
// Invalid parameters (missing or blank query, top below 1, wrong types)
// return code -32602. A missing pack returns -32001, an unavailable
// embedding provider -32002, anything else -32603.
package mcp
