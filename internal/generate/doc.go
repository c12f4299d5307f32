// Package generate drafts chapters with an LLM provider.
//
// A Drafter assembles the current character sheet and relationship
// list into a prompt, asks the configured provider for the chapter
// text, and publishes chapter.written so the memory pipeline picks it
// up. Providers are selected by name the same way the config section
// spells them: "anthropic" or "openai".
package generate
