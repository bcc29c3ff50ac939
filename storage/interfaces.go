package storage

import "gloveiq-importer/models"

// ListingWriter is the interface any listing sink must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}
