package streams

// BuildIndex projects a catalog into its index document.
func BuildIndex(c *Catalog) Index {
	return Index{
		Format: IndexFormat,
		Index: map[string]StreamIndex{
			ContentID: {
				DataType: DataType,
				Path:     CatalogPath,
				Format:   ProductFormat,
				Products: c.ProductKeys(),
			},
		},
	}
}
