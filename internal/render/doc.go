// Package render formats transcript documents into Markdown. The readable
// variant is a direct rendering with bad segments stripped; the final
// variant additionally runs each paragraph through grammar correction.
package render
