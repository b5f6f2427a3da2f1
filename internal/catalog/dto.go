package catalog

type SearchProductsRequest struct {
	ProductIDs []string `json:"productIds"`
}

type SearchProductsResponse struct {
	TraceID  string       `json:"traceId"`
	Products []ProductDTO `json:"products"`
	NotFound []string     `json:"notFound"`
}

type ProductDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}
