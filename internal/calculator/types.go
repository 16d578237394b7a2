package calculator

// CalcRequest is the JSON body for binary operations. Both operands are
// required; pointers tell an absent field from an explicit zero.
type CalcRequest struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

// CalcResponse is the JSON response for binary operations. Modulus results
// are whole numbers.
type CalcResponse struct {
	Operation string  `json:"operation"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
	Result    float64 `json:"result"`
}

// ChainStep applies Op to the running total and Value.
type ChainStep struct {
	Op    string   `json:"op"`
	Value *float64 `json:"value"`
}

// ChainRequest is the JSON body for POST /calculator/chain.
type ChainRequest struct {
	Initial *float64    `json:"initial"`
	Steps   []ChainStep `json:"steps"`
}

// ChainResponse is the JSON response for POST /calculator/chain.
type ChainResponse struct {
	Initial float64       `json:"initial"`
	Steps   []ChainResult `json:"steps"`
	Result  float64       `json:"result"`
}

// ChainResult records one executed step.
type ChainResult struct {
	Op     string  `json:"op"`
	Value  float64 `json:"value"`
	Result float64 `json:"result"`
}

// OperationsResponse is the JSON response for GET /calculator/operations.
type OperationsResponse struct {
	Operations []string `json:"operations"`
}
