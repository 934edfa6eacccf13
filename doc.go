// Package memoir reconstructs conversational memory for stateless chat models.
//
// A hosted chat model remembers nothing between requests: every completion is
// computed from the prompt alone. memoir stores the turns of each session and
// replays them into the next prompt, which is the whole trick behind a model
// that "remembers". Histories live in process memory, SQLite, or PostgreSQL
// behind the same Store interface, and Conversation wires a store, the prompt
// assembly, and the model client together.
package memoir
