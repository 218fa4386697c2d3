// Package media classifies observation link lists into image and video
// groups and derives the per-observation display bundle.
package media

import (
	"path"
	"strings"

	"github.com/lapalma/sunscan-go/internal/dataset"
)

// Recognized file suffixes per media kind. Anything else cannot be
// displayed inline and is dropped when grouping.
var (
	imageSuffixes = map[string]struct{}{
		".png":  {},
		".jpg":  {},
		".jpeg": {},
		".gif":  {},
	}
	videoSuffixes = map[string]struct{}{
		".mp4":  {},
		".webm": {},
		".mov":  {},
	}
)

// IsImage reports whether the link has a recognized image suffix.
func IsImage(link string) bool {
	_, ok := imageSuffixes[suffix(link)]
	return ok
}

// IsVideo reports whether the link has a recognized video suffix.
func IsVideo(link string) bool {
	_, ok := videoSuffixes[suffix(link)]
	return ok
}

func suffix(link string) string {
	return strings.ToLower(path.Ext(link))
}

// Bundle is the display material derived for one observation: a primary
// image and video plus everything left over. Each group is drawn only from
// its own source column, so a video file misplaced in the image column is
// dropped rather than adopted as a video.
type Bundle struct {
	PrimaryImage     string   `json:"primary_image,omitempty"`
	PrimaryVideo     string   `json:"primary_video,omitempty"`
	AdditionalImages []string `json:"additional_images"`
	AdditionalMovies []string `json:"additional_movies"`
}

// ForObservation derives the media bundle for one observation. The first
// suffix-matching element of each link column becomes the primary, the
// remaining matches, excluding anything equal to the primary, become the
// additional group.
func ForObservation(obs *dataset.Observation) Bundle {
	primaryImage, additionalImages := splitPrimary(obs.ImageLinks, IsImage)
	primaryVideo, additionalMovies := splitPrimary(obs.VideoLinks, IsVideo)
	return Bundle{
		PrimaryImage:     primaryImage,
		PrimaryVideo:     primaryVideo,
		AdditionalImages: additionalImages,
		AdditionalMovies: additionalMovies,
	}
}

func splitPrimary(links []string, match func(string) bool) (primary string, rest []string) {
	rest = []string{}
	for _, link := range links {
		if !match(link) {
			continue
		}
		if primary == "" {
			primary = link
			continue
		}
		if link != primary {
			rest = append(rest, link)
		}
	}
	return primary, rest
}

// Truncate caps both additional groups at max entries. A non-positive max
// leaves the bundle unchanged.
func (b *Bundle) Truncate(max int) {
	if max <= 0 {
		return
	}
	if len(b.AdditionalImages) > max {
		b.AdditionalImages = b.AdditionalImages[:max]
	}
	if len(b.AdditionalMovies) > max {
		b.AdditionalMovies = b.AdditionalMovies[:max]
	}
}

// PreferredLink picks the link to feature from a free-form link list: the
// first .mp4 link when present, otherwise the first link of any kind.
func PreferredLink(links []string) string {
	for _, link := range links {
		if strings.ToLower(path.Ext(link)) == ".mp4" {
			return link
		}
	}
	if len(links) > 0 {
		return links[0]
	}
	return ""
}

// Group splits a flat list of links into its image and video members,
// preserving order and skipping anything unclassifiable. Used for the
// free-form links column, which mixes both kinds.
func Group(links []string) (images, videos []string) {
	images = make([]string, 0, len(links))
	videos = make([]string, 0, len(links))
	for _, link := range links {
		switch {
		case IsImage(link):
			images = append(images, link)
		case IsVideo(link):
			videos = append(videos, link)
		}
	}
	return images, videos
}
