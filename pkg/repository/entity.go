package repository

// Entity is implemented by every GORM model exposed through a repository
type Entity interface {
	// TableName returns the database table name for this entity
	TableName() string

	// GetPrimaryKeyValue returns the value of the primary key
	GetPrimaryKeyValue() any
}

// RelationshipAware is implemented by entities whose rows appear in the
// cached reads of other resources, typically through a join. Writes to such
// an entity also invalidate those resources.
type RelationshipAware interface {
	Entity

	// RelatedResources returns the API resource names to invalidate
	RelatedResources() []string
}
