package app

// CatalogOperation tracks a CLI operation that may mutate the catalog.
// Operations are created in memory with ID=0. Only catalog-mutating commands
// persist them (giving them an auto-increment ID from the database).
type CatalogOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewCatalogOperation creates a new in-memory catalog operation.
func NewCatalogOperation(operation, parameters string) *CatalogOperation {
	return &CatalogOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *CatalogOperation) Persisted() bool {
	return op.ID != 0
}
