// Package sources discovers hearing videos on the Michigan House and
// Senate archive sites. Each collector fetches an archive page, parses it
// with goquery, and emits normalized candidates keyed by the filename the
// download stage will produce. Collectors never touch pipeline state; they
// only report what exists upstream.
package sources
