package types

// Attachment is a document reference belonging to exactly one trip. The
// payload bytes live in the blob store; FileID points at them. Leg is the
// legacy outbound/inbound tag; Category and Ref are the generalized index
// layered on later (category names the itinerary sub-entity type, ref the
// specific instance, e.g. "stay" / "Roma|Piazza 16").
type Attachment struct {
	AttID    int64  `json:"attId,omitempty"`
	TripID   string `json:"tripId,omitempty"`
	Leg      string `json:"leg,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"` // MIME type.
	Size     int64  `json:"size,omitempty"` // Payload bytes.
	FileID   string `json:"fileId,omitempty"`
	Category string `json:"category,omitempty"`
	Ref      string `json:"ref,omitempty"`
}

// BlobRef identifies a stored binary payload. Attachment rows embed the ID
// as file_id and never carry the bytes themselves.
type BlobRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}
