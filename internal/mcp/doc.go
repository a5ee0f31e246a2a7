// Package mcp exposes task extraction to agents over the Model Context
// Protocol (github.com/modelcontextprotocol/go-sdk/mcp).
//
// Tools:
//
//	extract_tasks    run the pipeline over a transcript and a team roster
//	score_assignees  rank team members for a task description
//
// The server runs on the stdio transport; see cmd/actiond "mcp".
package mcp
