package services

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"gloveiq-importer/models"
)

// guessExtAndContentType derives a file extension and content-type guess from
// the URL's path suffix, defaulting to a generic JPEG when unknown. The query
// string never participates.
func guessExtAndContentType(imageURL string) (string, string) {
	noQuery := imageURL
	if i := strings.Index(noQuery, "?"); i >= 0 {
		noQuery = noQuery[:i]
	}
	ext := ""
	if u, err := url.Parse(noQuery); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if ext == "" {
		return ".jpg", "image/jpeg"
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		return ".jpg", "image/jpeg"
	}
	return ext, ct
}

// ImageTargetKey computes the deterministic storage key for one image URL:
// {prefix}/{source}/{listing_id}/{index:02d}_{sha1[:10]}{ext}. The key is the
// idempotency handle the external uploader joins on, so it must never change
// for the same URL and index.
func ImageTargetKey(prefix, source, listingID string, index int, imageURL string) (string, string) {
	sum := sha1.Sum([]byte(imageURL))
	digest := hex.EncodeToString(sum[:])
	ext, ct := guessExtAndContentType(imageURL)
	key := fmt.Sprintf("%s/%s/%s/%02d_%s%s", prefix, source, listingID, index, digest[:10], ext)
	return key, ct
}

// MapListingMedia builds the manifest entry for one retained listing,
// preserving image order with 1-based indexes.
func MapListingMedia(prefix string, l *models.Listing) *models.MediaManifestEntry {
	mappings := make([]models.MediaMapping, 0, len(l.Images))
	for i, imageURL := range l.Images {
		idx := i + 1
		key, ct := ImageTargetKey(prefix, l.Source, l.SourceListingID, idx, imageURL)
		mappings = append(mappings, models.MediaMapping{
			ImageIndex:       idx,
			SourceURL:        imageURL,
			TargetStorageKey: key,
			ContentType:      ct,
			MappingKey:       fmt.Sprintf("%s:%s:%d", l.Source, l.SourceListingID, idx),
		})
	}
	return &models.MediaManifestEntry{
		ListingPK:        l.ListingPK,
		Source:           l.Source,
		SourceListingID:  l.SourceListingID,
		OrderedImageURLs: l.Images,
		ImageMappings:    mappings,
	}
}
