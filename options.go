package readable

import (
	"regexp"

	"golang.org/x/net/html"
)

// Default option values.
const (
	DefaultNbTopCandidates = 5
	DefaultCharThreshold   = 500
)

// Options configures a single extraction.
type Options struct {
	// MaxElemsToParse aborts parsing when the document has more elements.
	// Zero means unlimited.
	MaxElemsToParse int

	// NbTopCandidates is the number of top candidates compared when looking
	// for a better common ancestor.
	NbTopCandidates int

	// CharThreshold is the minimum text length an attempt needs to be
	// accepted without relaxing the extraction rules.
	CharThreshold int

	// ClassesToPreserve are kept on content elements in addition to
	// "readability-styled" and "page".
	ClassesToPreserve []string

	// KeepClasses disables class stripping entirely.
	KeepClasses bool

	// DisableJSONLD skips JSON-LD metadata discovery.
	DisableJSONLD bool

	// AllowedVideoRegex overrides the pattern used to keep embedded videos.
	AllowedVideoRegex *regexp.Regexp

	// LinkDensityModifier loosens (positive) or tightens (negative) the
	// link density limits used during cleanup.
	LinkDensityModifier float64

	// URLTransformers rewrite the document URI before parsing, highest
	// priority first.
	URLTransformers []URLTransformer

	// DiscardImages lets conditional cleaning drop image-heavy blocks.
	// The zero value keeps them, so a partly filled Options still
	// preserves media.
	DiscardImages bool

	// DiscardVideos lets conditional cleaning drop blocks with embeds.
	DiscardVideos bool

	// Serializer renders the content node. Defaults to inner HTML.
	Serializer func(*html.Node) string
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		NbTopCandidates: DefaultNbTopCandidates,
		CharThreshold:   DefaultCharThreshold,
	}
}

// GrabOptions are the relaxation flags of one extraction attempt.
type GrabOptions struct {
	StripUnlikelyCandidates bool
	WeightClasses           bool
	CleanConditionally      bool
	PreserveImages          bool
	PreserveVideos          bool
}

// DefaultGrabOptions returns the strictest attempt configuration.
func DefaultGrabOptions() GrabOptions {
	return GrabOptions{
		StripUnlikelyCandidates: true,
		WeightClasses:           true,
		CleanConditionally:      true,
		PreserveImages:          true,
		PreserveVideos:          true,
	}
}

// Ladder returns the attempt sequence starting from o, each entry relaxing
// one more flag: unlikely-candidate stripping, then class weighting, then
// conditional cleaning. Flags that are already off add no entry.
func (o GrabOptions) Ladder() []GrabOptions {
	ladder := []GrabOptions{o}
	if o.StripUnlikelyCandidates {
		next := o
		next.StripUnlikelyCandidates = false
		ladder = append(ladder, next)
	}
	if o.WeightClasses {
		next := o
		next.StripUnlikelyCandidates = false
		next.WeightClasses = false
		ladder = append(ladder, next)
	}
	if o.CleanConditionally {
		next := o
		next.StripUnlikelyCandidates = false
		next.WeightClasses = false
		next.CleanConditionally = false
		ladder = append(ladder, next)
	}
	return ladder
}
