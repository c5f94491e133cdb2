package ports

// SchemaCapabilities is a read-only view of the deployment's parcel table.
type SchemaCapabilities interface {
	// Version increases every time the capabilities are reloaded.
	Version() uint64

	// HasColumn reports whether an optional column exists.
	HasColumn(name string) bool

	// TrackingCodeMaxLength is the width of the tracking code column.
	TrackingCodeMaxLength() int

	// DescriptionColumn is the name the free-text description is stored under.
	DescriptionColumn() string
}

// SchemaProvider exposes the current capability snapshot.
type SchemaProvider interface {
	Capabilities() SchemaCapabilities
}
