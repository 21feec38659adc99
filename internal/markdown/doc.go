// Package markdown loads docs and blog posts from disk, splits front matter
// from the body and renders the body with goldmark. Relative links to other
// markdown files are rewritten to site routes while parsing.
package markdown
