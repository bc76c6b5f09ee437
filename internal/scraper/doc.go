// Package scraper drives a browser through the JobStreet "applied jobs"
// area and turns every job card into a records.JobRecord.
//
// browser scrapers are inherently stateful, every step depends on what the
// previous step left on screen (which page is loaded, which panel is open,
// which tab is active). that state lives in Session and is passed to every
// component explicitly instead of being queried from the browser ad hoc.
//
// each page follows the same structure:
// 1. confirm we are on a results page.
// 2. list the job cards in a deterministic order.
// 3. per card: open the detail panel, read each field, close the panel.
// 4. advance to the next (or previous) page.
//
// reading a field is declarative: a field is an ordered list of strategies
// (xpath sibling walk, data-automation lookup, plain text line walk) and the
// first one that yields a value wins. anything else falls back to "N/A".
//
// failures are contained at the smallest boundary that can absorb them, a
// missing field becomes "N/A", a broken card is skipped, a failed page
// transition ends pagination. only navigation and authentication failures
// abort a run.
package scraper
