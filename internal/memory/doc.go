// Package memory extracts character memories from finished chapters
// and answers searches over them.
//
// The service subscribes to chapter.written, scans the chapter text
// for sentences mentioning each listed character, and keeps the hits
// as that character's memories of the chapter. Extraction runs one
// task per character on a shared goroutine pool. When every character
// has been scanned the service publishes chapter.processed.
//
// UnifiedSearch queries the recorded memories across recency tiers:
// the latest chapter, the last few chapters, or everything. Search is
// eventually consistent with extraction; it sees a chapter only after
// its processing has finished.
package memory
