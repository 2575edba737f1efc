// Package readable extracts the main article content and metadata from HTML
// documents using the Mozilla Readability scoring approach.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., html/, goquery/, htmltomarkdown/).
package readable
