// Package types defines the trip, event, and attachment entities, the
// TripStore interface, configuration, and standard errors for the tripvault
// storage system.
package types
